package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/lnk/internal/app"
	"github.com/samvad-hq/lnk/internal/config"
	"github.com/samvad-hq/lnk/internal/logger"
)

var version = "0.1.0"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lnk: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var connectorsFile string

	root := &cobra.Command{
		Use:           "lnk",
		Short:         "Call APIs, databases and queues declared in a connectors file",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&connectorsFile, "config", "c", "", "Path to the connectors file (overrides LNK_CONNECTORS_FILE)")

	// withApp loads config and logging, then hands a ready App to fn.
	withApp := func(fn func(ctx context.Context, a *app.App, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if connectorsFile != "" {
				cfg.ConnectorsFile = connectorsFile
			}

			log, err := logger.Init(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logger.Close()

			a, err := app.New(cfg, logger.New(log.Desugar()), cmd.OutOrStdout())
			if err != nil {
				logger.ErrorObj("failed to initialize lnk", "error", err.Error())
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					logger.WarnObj("close connectors", "error", err.Error())
				}
			}()
			return fn(cmd.Context(), a, args)
		}
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lnk v%s (%s %s/%s)\n", version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured connectors",
		Args:  cobra.NoArgs,
		RunE: withApp(func(_ context.Context, a *app.App, _ []string) error {
			return a.List()
		}),
	})

	var data, format string
	callCmd := &cobra.Command{
		Use:   "call <api> <get|post|put> <path>",
		Short: "Send a request through an API connector",
		Example: `  lnk call tracker get /projects
  lnk call tracker post /stories --data '{"name":"x"}' --format raw`,
		Args: cobra.ExactArgs(3),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.Call(ctx, args[0], args[1], args[2], data, format)
		}),
	}
	callCmd.Flags().StringVarP(&data, "data", "d", "", "Request body for post/put, sent as-is")
	callCmd.Flags().StringVarP(&format, "format", "f", app.FormatJSON, "Output view: json, xml, html or raw")
	root.AddCommand(callCmd)

	root.AddCommand(&cobra.Command{
		Use:   "query <db> <sql> [args...]",
		Short: "Run a SELECT through a SQL connector and print rows as JSON lines",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.Query(ctx, args[0], args[1], stringArgs(args[2:])...)
		}),
	})

	root.AddCommand(&cobra.Command{
		Use:   "exec <db> <sql> [args...]",
		Short: "Run a statement through a SQL connector",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			return a.Exec(ctx, args[0], args[1], stringArgs(args[2:])...)
		}),
	})

	var attrs []string
	sendCmd := &cobra.Command{
		Use:   "send <queue> <message>",
		Short: "Send a message through a queue connector",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(ctx context.Context, a *app.App, args []string) error {
			parsed, err := parseAttrs(attrs)
			if err != nil {
				return err
			}
			return a.Send(ctx, args[0], args[1], parsed)
		}),
	}
	sendCmd.Flags().StringArrayVarP(&attrs, "attr", "a", nil, "Message attribute as key=value (repeatable, commas kept in values)")
	root.AddCommand(sendCmd)

	return root
}

func stringArgs(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

func parseAttrs(in []string) (map[string]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(in))
	for _, kv := range in {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid attribute %q (expected key=value)", kv)
		}
		out[strings.TrimSpace(k)] = v
	}
	return out, nil
}
