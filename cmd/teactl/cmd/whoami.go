package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kacegz/teactl/pkg/clierror"
	"github.com/Kacegz/teactl/pkg/timeutil"
)

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// WhoamiOutput represents the JSON/YAML output for the whoami command.
type WhoamiOutput struct {
	Subject   string    `json:"subject" yaml:"subject"`
	Admin     bool      `json:"admin" yaml:"admin"`
	ExpiresAt time.Time `json:"expires_at" yaml:"expires_at"`
	ServerURL string    `json:"server_url,omitempty" yaml:"server_url,omitempty"`
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show current authenticated identity",
	Long: `Display the current session: subject, admin status, and credential
expiry. Returns a non-zero exit code when not logged in.

Examples:
  teactl whoami
  teactl whoami -o json`,
	RunE: runWhoami,
}

func runWhoami(cmd *cobra.Command, args []string) error {
	snap := awaitElevation(cmd)
	if !snap.Authenticated {
		// Returned rather than exiting here so the root command's
		// teardown still runs; main maps the exit code.
		return clierror.NotAuthenticated()
	}

	output := WhoamiOutput{
		Subject:   snap.Claims.Subject,
		Admin:     snap.Elevated,
		ExpiresAt: snap.Claims.ExpiresAt,
		ServerURL: GetServer(),
	}

	if outputFormat != "table" {
		return formatOutput(output)
	}

	fmt.Printf("Subject: %s\n", output.Subject)
	fmt.Printf("Admin:   %v\n", output.Admin)
	fmt.Printf("Expires: %s (%s)\n", output.ExpiresAt.Format(time.RFC3339), timeutil.Relative(output.ExpiresAt))
	if output.ServerURL != "" {
		fmt.Printf("Server:  %s\n", output.ServerURL)
	}
	return nil
}
