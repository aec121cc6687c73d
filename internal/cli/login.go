package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"saha.org/internal/panelapi"
	"saha.org/internal/pipeline"
)

type loginOptions struct {
	user     string
	password string
	method   string
	code     string
}

// NewLoginCommand creates the login command. The verification code is read
// from --code or, when absent, line by line from stdin.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &loginOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in with credentials and a verification code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return runLogin(cmd, a, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.user, "user", "u", "", "email address or phone number")
	cmd.Flags().StringVarP(&opts.password, "password", "p", "", "password")
	cmd.Flags().StringVar(&opts.method, "method", "email", "verification code delivery (sms|email)")
	cmd.Flags().StringVar(&opts.code, "code", "", "verification code; prompted when empty")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func runLogin(cmd *cobra.Command, a *app, opts *loginOptions) error {
	ctx := cmd.Context()
	flow := panelapi.NewLoginFlow(a.client, a.session, a.printer)

	step, err := flow.Start(ctx, opts.user, opts.password, panelapi.ParseVerifyMethod(opts.method))
	if err != nil {
		return loginError(a, err)
	}
	if step.Stage != panelapi.StageCode {
		return denied(step.Notice.Message)
	}
	a.out.Notice("%s", step.Notice.Message)

	codes := codeSource(cmd.InOrStdin(), opts.code)
	for {
		code, ok := codes(a)
		if !ok {
			flow.Reset()
			return denied("no verification code given")
		}
		step, err = flow.SubmitCode(ctx, code)
		if err != nil {
			return loginError(a, err)
		}
		switch step.Stage {
		case panelapi.StageDone:
			data := map[string]any{"user": step.Identity, "redirect": step.Redirect}
			return a.out.Result(data, fmt.Sprintf("%s: %s (%s)", step.Notice.Message, step.Identity.FullName(), step.Redirect))
		case panelapi.StageCredentials:
			return denied(step.Notice.Message)
		default:
			a.out.Notice("%s (%d/%d)", step.Notice.Message, step.Attempts, panelapi.MaxCodeAttempts)
			if opts.code != "" {
				flow.Reset()
				return denied(step.Notice.Message)
			}
		}
	}
}

// codeSource yields the flag value once, or stdin lines until EOF.
func codeSource(in io.Reader, flagCode string) func(*app) (string, bool) {
	if flagCode != "" {
		used := false
		return func(*app) (string, bool) {
			if used {
				return "", false
			}
			used = true
			return flagCode, true
		}
	}
	scanner := bufio.NewScanner(in)
	return func(a *app) (string, bool) {
		a.out.Notice("code: ")
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}
}

func loginError(a *app, err error) error {
	var perr *pipeline.Error
	if errors.As(err, &perr) {
		a.out.VerboseLog("login failed: %s", perr.Detail())
		if perr.Kind == pipeline.KindNetworkUnreachable {
			return commandError(perr.Message, nil)
		}
		return denied(perr.Message)
	}
	if errors.Is(err, panelapi.ErrMissingInput) {
		return commandError("user and password are required", err)
	}
	return commandError("login", err)
}
