package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"saha.org/internal/config"
	"saha.org/internal/guard"
	"saha.org/internal/i18n"
	"saha.org/internal/panelapi"
	"saha.org/internal/permission"
	"saha.org/internal/pipeline"
	"saha.org/internal/session"
	"saha.org/internal/signer"
)

// app is the client core assembled from SAHA_* configuration.
type app struct {
	cfg     *config.Client
	printer i18n.Printer
	signer  *signer.Signer
	session *session.Session
	client  *panelapi.Client
	out     *OutputFormatter
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func newApp(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*app, error) {
	if err := config.LoadDotEnv(opts.EnvFiles...); err != nil {
		return nil, commandError("load env", err)
	}
	cfg, err := config.LoadClient()
	if err != nil {
		return nil, commandError("config", err)
	}
	sg, err := signer.New(cfg.AppSecret)
	if err != nil {
		return nil, commandError("signer", err)
	}
	tokens, err := session.Open(ctx, session.Config{
		Driver:   cfg.TokenStore,
		StateDir: cfg.StateDir,
		Redis:    session.RedisConfig{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Prefix: "saha:"},
	})
	if err != nil {
		return nil, commandError("token store", err)
	}
	printer := i18n.New(cfg.Lang)
	sess := session.New(tokens)
	tr := &pipeline.Transport{APIBase: cfg.APIBase, Signer: sg, Tokens: sess}
	client := panelapi.New(pipeline.NewClient(tr, pipeline.Classifier{Printer: printer}, cfg.Timeout))

	a := &app{cfg: cfg, printer: printer, signer: sg, session: sess, client: client, out: opts.formatter(cmd)}
	a.out.VerboseLog("api base %s, token store %s", cfg.APIBase, cfg.TokenStore)
	return a, nil
}

func (a *app) close() { _ = a.session.Tokens().Close() }

func (a *app) routes() (*guard.RouteTable, error) {
	if a.cfg.Routes == "" {
		return guard.DefaultRoutes()
	}
	t, err := guard.LoadRoutesFile(a.cfg.Routes)
	if err != nil {
		return nil, fmt.Errorf("routes %s: %w", a.cfg.Routes, err)
	}
	return t, nil
}

func (a *app) navigator(routes *guard.RouteTable, notices guard.Notifier) *guard.Navigator {
	perms := permission.NewResolver(a.client, permission.WithTTL(a.cfg.PermTTL))
	return guard.NewNavigator(routes, a.session, a.client.Verifier(), perms,
		guard.WithPrinter(a.printer), guard.WithNotifier(notices))
}
