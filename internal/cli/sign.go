package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"saha.org/internal/signer"
)

// NewSignCommand creates the sign command, which prints the Hash and
// Timestamp headers for an API path.
func NewSignCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sign <path>",
		Short: "Print signature headers for an API path",
		Long: `Print the Hash and Timestamp headers the pipeline would attach to a call.

The path may be relative to the API base ("user/verify") or a full URL under it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.close()

			path, err := signedPath(a.cfg.APIBase, args[0])
			if err != nil {
				return commandError("path", err)
			}
			sig := a.signer.Sign(path)
			data := map[string]string{
				"path":                 sig.Path,
				signer.HeaderHash:      sig.Hash,
				signer.HeaderTimestamp: sig.Timestamp,
			}
			return a.out.Result(data, fmt.Sprintf("%s: %s\n%s: %s", signer.HeaderHash, sig.Hash, signer.HeaderTimestamp, sig.Timestamp))
		},
	}
}

// signedPath reduces arg to the path relative to base, without query.
func signedPath(base, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		if !strings.HasPrefix(arg, base) {
			return "", fmt.Errorf("%s is outside %s", arg, base)
		}
		arg = strings.TrimPrefix(arg, base)
	}
	u, err := url.Parse(arg)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(u.EscapedPath(), "/"), nil
}
