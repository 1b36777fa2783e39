package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fsmkit/pkg/record"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

const definitions = `
owners:
  order:
    machines:
      - name: status
        attribute: status
        initial: open
        whiny_persistence: true
        transitions:
          - event: close
            from: [open]
            to: closed
          - event: reopen
            from: [closed]
            to: open
      - name: payment
        attribute: payment_state
        initial: pending
        skip_validation_on_save: true
        transitions:
          - event: pay
            from: [pending]
            to: paid
  rush_order:
    extends: order
`

type fixture struct {
	envFile string
	dir     string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	defs := filepath.Join(dir, "machines.yaml")
	require.NoError(t, os.WriteFile(defs, []byte(definitions), 0o600))

	envFile := filepath.Join(dir, "test.env")
	env := "STATECTL_BACKEND=sqlite\n" +
		"STATECTL_DEFINITIONS=" + defs + "\n" +
		"STATECTL_LOG_LEVEL=error\n" +
		"SQLITE_PATH=" + filepath.Join(dir, "records.db") + "\n"
	require.NoError(t, os.WriteFile(envFile, []byte(env), 0o600))
	return fixture{envFile: envFile, dir: dir}
}

func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(append([]string{"--env-file", f.envFile}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidate(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "order.status attribute=status initial=open states=open,closed\n")
	assert.Contains(t, out, "order.payment attribute=payment_state initial=pending states=pending,paid\n")
	assert.Contains(t, out, "1 owner(s) valid")

	bad := filepath.Join(f.dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("owners:\n  order:\n    machines:\n      - name: status\n        unknown: true\n"), 0o600))
	_, err = f.run(t, "validate", bad)
	assert.Error(t, err)
}

func TestRecordLifecycle(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "create", "order", "--id", "o-1", "title=First")
	require.NoError(t, err)
	assert.Equal(t, "o-1\n", out)

	out, err = f.run(t, "show", "order", "o-1")
	require.NoError(t, err)
	var view recordView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, map[string]string{"status": "open", "payment": "pending"}, view.States)
	assert.Equal(t, "First", view.Attributes["title"])
	assert.Equal(t, "open", view.Attributes["status"], "initial state is persisted on create")

	out, err = f.run(t, "--metrics", "fire", "order", "o-1", "status", "close")
	require.NoError(t, err)
	assert.Contains(t, out, "status: open -> closed\n")
	assert.Contains(t, out, `statectl_state_transitions_total{event="close",from="open",machine="status",owner="order",persisted="true",to="closed"} 1`)

	out, err = f.run(t, "fire", "order", "o-1", "payment", "pay")
	require.NoError(t, err)
	assert.Contains(t, out, "payment: pending -> paid")

	_, err = f.run(t, "fire", "order", "o-1", "status", "close")
	require.Error(t, err, "closed orders cannot be closed again")
	assert.True(t, statemachine.IsNoTransitionAvailableError(err))

	out, err = f.run(t, "show", "order", "o-1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, map[string]string{"status": "closed", "payment": "paid"}, view.States)

	out, err = f.run(t, "delete", "order", "o-1")
	require.NoError(t, err)
	assert.Equal(t, "deleted order/o-1\n", out)

	_, err = f.run(t, "show", "order", "o-1")
	assert.ErrorIs(t, err, record.ErrNotFound)
}

func TestInheritedMachines(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "create", "rush_order", "--id", "r-1")
	require.NoError(t, err)

	out, err := f.run(t, "fire", "rush_order", "r-1", "status", "close")
	require.NoError(t, err)
	assert.Contains(t, out, "status: open -> closed")
}

func TestCreateErrors(t *testing.T) {
	f := newFixture(t)

	_, err := f.run(t, "create", "order", "title")
	assert.ErrorContains(t, err, "want attribute=value")

	_, err = f.run(t, "create", "invoice")
	assert.Error(t, err, "owners without machines are rejected")

	_, err = f.run(t, "--backend", "cassandra", "create", "order")
	assert.ErrorContains(t, err, "unknown backend")
}

func TestPing(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "ping")
	require.NoError(t, err)
	assert.Equal(t, "sqlite ok\n", out)

	out, err = f.run(t, "--backend", "memory", "ping")
	require.NoError(t, err)
	assert.Equal(t, "memory ok\n", out)
}

func TestParseAssignments(t *testing.T) {
	values, err := parseAssignments([]string{"title=Hello=World", " note =x", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello=World", "note": "x", "empty": ""}, values)

	_, err = parseAssignments([]string{"=x"})
	assert.Error(t, err)
}

func TestFireUnknownMachine(t *testing.T) {
	f := newFixture(t)
	_, err := f.run(t, "create", "order", "--id", "o-2")
	require.NoError(t, err)

	_, err = f.run(t, "fire", "order", "o-2", "shipping", "ship")
	require.Error(t, err)
	assert.True(t, statemachine.IsUnknownMachineError(err))
}
