package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"saha.org/internal/config"
	"saha.org/internal/guard"
	"saha.org/internal/notify"
)

// NewNavigateCommand creates the navigate command, which runs the guard
// chain of a panel URL against the stored session.
func NewNavigateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <url>",
		Short: "Dry-run the route guards for a panel URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			routes, err := a.routes()
			if err != nil {
				return commandError("routes", err)
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			bus := notify.New(0)
			notices := bus.Subscribe(ctx)

			d := a.navigator(routes, bus).Navigate(ctx, args[0])
			text := describe(d, notify.Drain(notices))
			if !d.Allowed {
				if err := a.out.Failure(text, d); err != nil {
					return err
				}
				return &ExitError{Code: ExitDenied, Message: string(d.State)}
			}
			return a.out.Result(d, text)
		},
	}
}

func describe(d guard.Decision, notices []guard.Notice) string {
	var b strings.Builder
	verdict := "allowed"
	if !d.Allowed {
		verdict = "denied"
	}
	fmt.Fprintf(&b, "%s %s (%s)", d.URL, verdict, d.State)
	if d.Redirect != "" {
		fmt.Fprintf(&b, " -> %s", d.Redirect)
	}
	for _, n := range notices {
		fmt.Fprintf(&b, "\n  [%s] %s", n.Level, strings.ReplaceAll(n.Message, "\n", " "))
	}
	return b.String()
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "routes",
		Short: "List the route table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			if err := config.LoadDotEnv(rootOpts.EnvFiles...); err != nil {
				return commandError("load env", err)
			}
			path, err := config.RoutesFile()
			if err != nil {
				return commandError("config", err)
			}
			var table *guard.RouteTable
			if path != "" {
				table, err = guard.LoadRoutesFile(path)
			} else {
				table, err = guard.DefaultRoutes()
			}
			if err != nil {
				return commandError("routes", err)
			}
			var b strings.Builder
			for _, rt := range table.Routes() {
				fmt.Fprintf(&b, "%-24s %-10s %-26s %s\n", rt.Path, rt.Section, rt.View, strings.Join(rt.Guards, ","))
			}
			return out.Result(table.Routes(), strings.TrimRight(b.String(), "\n"))
		},
	}
}
