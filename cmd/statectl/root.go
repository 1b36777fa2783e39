package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/fsmkit/pkg/config"
	"github.com/dmitrymomot/fsmkit/pkg/logger"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine"
	"github.com/dmitrymomot/fsmkit/pkg/statemachine/metrics"
)

// Config is read from the environment; flags override it.
type Config struct {
	Backend     string `env:"STATECTL_BACKEND" envDefault:"sqlite"`
	Definitions string `env:"STATECTL_DEFINITIONS" envDefault:"machines.yaml"`
	LogLevel    string `env:"STATECTL_LOG_LEVEL" envDefault:"info"`
	Env         string `env:"STATECTL_ENV" envDefault:"development"`
}

type app struct {
	out    io.Writer
	errOut io.Writer

	envFiles    []string
	backend     string
	definitions string
	showMetrics bool

	cfg      Config
	log      *slog.Logger
	registry *statemachine.Registry
	metrics  *prometheus.Registry
	engine   *statemachine.Engine
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "statectl",
		Short:         "Drive state machines of stored records",
		Long:          `statectl loads machine definitions from YAML and creates, inspects and transitions records in a configured storage backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to read before the environment")
	flags.StringVar(&a.backend, "backend", "", "storage backend: memory, sqlite, pg, mongo or redis (overrides STATECTL_BACKEND)")
	flags.StringVar(&a.definitions, "definitions", "", "machine definitions file (overrides STATECTL_DEFINITIONS)")
	flags.BoolVar(&a.showMetrics, "metrics", false, "print transition counters after the command")

	root.AddCommand(
		a.validateCmd(),
		a.createCmd(),
		a.fireCmd(),
		a.showCmd(),
		a.deleteCmd(),
		a.pingCmd(),
	)
	return root
}

// setup loads configuration, the logger and the machine registry.
func (a *app) setup(definitions string) error {
	var opts []config.Option
	if len(a.envFiles) > 0 {
		opts = append(opts, config.WithEnvFiles(a.envFiles...))
	}
	if err := config.Load(&a.cfg, opts...); err != nil {
		return err
	}
	if a.backend != "" {
		a.cfg.Backend = a.backend
	}
	if a.definitions != "" {
		a.cfg.Definitions = a.definitions
	}
	if definitions != "" {
		a.cfg.Definitions = definitions
	}

	a.log = logger.New(
		logger.WithOutput(a.errOut),
		logger.WithEnvironment(a.cfg.Env, "statectl"),
		logger.WithLevelName(a.cfg.LogLevel),
	)

	registry, err := statemachine.LoadRegistryFile(a.cfg.Definitions)
	if err != nil {
		return err
	}
	a.registry = registry

	a.metrics = prometheus.NewRegistry()
	collector, err := metrics.NewCollector("statectl", a.metrics)
	if err != nil {
		return err
	}
	a.engine = statemachine.NewEngine(registry,
		statemachine.WithLogger(a.log),
		statemachine.WithHooks(statemachine.Merge(a.logHooks(), collector.Hooks())),
	)
	return nil
}

func (a *app) logHooks() statemachine.Hooks {
	return statemachine.Hooks{
		OnTransition: func(ctx context.Context, e statemachine.TransitionEvent) {
			a.log.InfoContext(ctx, "transition",
				logger.Owner(string(e.Owner)),
				logger.Machine(e.Machine),
				logger.Event(e.Event),
				slog.String("from", e.From),
				slog.String("to", e.To),
				slog.Bool("persisted", e.Persisted),
			)
		},
		OnPersistFailure: func(ctx context.Context, e statemachine.TransitionEvent, err error) {
			a.log.WarnContext(ctx, "transition rolled back",
				logger.Owner(string(e.Owner)),
				logger.Machine(e.Machine),
				logger.Event(e.Event),
				logger.Error(err),
			)
		},
	}
}

// printMetrics writes every non-zero counter as "name{labels} value".
func (a *app) printMetrics() error {
	if !a.showMetrics || a.metrics == nil {
		return nil
	}
	families, err := a.metrics.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			labels := make([]string, 0, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
			}
			fmt.Fprintf(a.out, "%s{%s} %g\n", mf.GetName(), strings.Join(labels, ","), v)
		}
	}
	return nil
}
