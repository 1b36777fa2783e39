package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/fsmkit/pkg/persistence"
	"github.com/dmitrymomot/fsmkit/pkg/record"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [definitions.yaml]",
		Short: "Check machine definitions and list what they register",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) > 0 {
				file = args[0]
			}
			if err := a.setup(file); err != nil {
				return err
			}

			owners := a.registry.Owners()
			slices.Sort(owners)
			for _, owner := range owners {
				set, err := a.registry.Fetch(owner, false)
				if err != nil {
					return err
				}
				for _, name := range set.Names() {
					d, _ := set.Machine(name)
					states := make([]string, 0, len(d.States()))
					for _, s := range d.States() {
						states = append(states, s.Name())
					}
					fmt.Fprintf(a.out, "%s.%s attribute=%s initial=%s states=%s\n",
						owner, name, d.Attribute(), d.InitialState().Name(), strings.Join(states, ","))
				}
			}
			fmt.Fprintf(a.out, "%d owner(s) valid\n", len(owners))
			return nil
		},
	}
}

func (a *app) createCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "create <owner> [attribute=value ...]",
		Short: "Create a record; blank machine attributes start in their initial state",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, store record.Store) error {
				schema, err := record.NewSchema(args[0])
				if err != nil {
					return err
				}
				m := record.New(schema, store, record.WithID(id), record.WithValues(values))
				ad, err := a.bind(m)
				if err != nil {
					return err
				}
				saved, err := ad.Save(ctx)
				if err != nil {
					return err
				}
				if !saved {
					return ad.InvalidRecord()
				}
				fmt.Fprintln(a.out, m.ID())
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record id (generated when empty)")
	return cmd
}

func (a *app) fireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fire <owner> <id> <machine> <event>",
		Short: "Fire an event and persist the new state",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, id, machine, event := args[0], args[1], args[2], args[3]
			return a.withStore(cmd, func(ctx context.Context, store record.Store) error {
				ad, err := a.load(ctx, store, owner, id)
				if err != nil {
					return err
				}
				from, err := ad.Current(machine)
				if err != nil {
					return err
				}

				saved, err := ad.FireAndSave(ctx, machine, statemachine.StringEvent(event), nil)
				if err != nil {
					return err
				}
				if !saved {
					return fmt.Errorf("%s not saved: %w", event, ad.InvalidRecord())
				}

				to, err := ad.Current(machine)
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s: %s -> %s\n", machine, from.Name(), to.Name())
				return nil
			})
		},
	}
}

type recordView struct {
	Kind       string            `json:"kind"`
	ID         string            `json:"id"`
	States     map[string]string `json:"states"`
	Attributes map[string]any    `json:"attributes"`
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <owner> <id>",
		Short: "Print a record with the current state of each machine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store record.Store) error {
				ad, err := a.load(ctx, store, args[0], args[1])
				if err != nil {
					return err
				}
				m := ad.Model()
				view := recordView{
					Kind:       m.Kind(),
					ID:         m.ID(),
					States:     make(map[string]string),
					Attributes: m.Snapshot(),
				}
				for _, name := range ad.Handle().Machines().Names() {
					s, err := ad.Current(name)
					if err != nil {
						return err
					}
					view.States[name] = s.Name()
				}

				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			})
		},
	}
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the configured backend is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(""); err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			c, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer c.release()

			if err := c.health(ctx); err != nil {
				return fmt.Errorf("%s backend unhealthy: %w", a.cfg.Backend, err)
			}
			fmt.Fprintf(a.out, "%s ok\n", a.cfg.Backend)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <owner> <id>...",
		Short: "Delete records",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd, func(ctx context.Context, store record.Store) error {
				for _, id := range args[1:] {
					if err := store.Delete(ctx, args[0], id); err != nil {
						return fmt.Errorf("delete %s/%s: %w", args[0], id, err)
					}
					fmt.Fprintf(a.out, "deleted %s/%s\n", args[0], id)
				}
				return nil
			})
		},
	}
}

// withStore runs fn against the configured backend and prints metrics afterwards.
func (a *app) withStore(cmd *cobra.Command, fn func(ctx context.Context, store record.Store) error) error {
	if err := a.setup(""); err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer c.release()

	if err := fn(ctx, c.store); err != nil {
		return err
	}
	return a.printMetrics()
}

func (a *app) bind(m *record.Model) (*persistence.Adapter, error) {
	return persistence.Bind(a.engine, "", m, persistence.WithLogger(a.log))
}

func (a *app) load(ctx context.Context, store record.Store, owner, id string) (*persistence.Adapter, error) {
	schema, err := record.NewSchema(owner)
	if err != nil {
		return nil, err
	}
	m, err := record.Load(ctx, schema, store, id)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", owner, id, err)
	}
	return a.bind(m)
}

func parseAssignments(args []string) (map[string]any, error) {
	values := make(map[string]any, len(args))
	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid assignment %q: want attribute=value", arg)
		}
		values[strings.TrimSpace(name)] = value
	}
	return values, nil
}
