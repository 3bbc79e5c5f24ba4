package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/cobra"

	"github.com/Kacegz/teactl/pkg/clierror"
	"github.com/Kacegz/teactl/pkg/session"
)

// TestWhoamiNotLoggedIn tests that whoami reports a structured auth error
// instead of exiting the process, so the root command's teardown still runs.
func TestWhoamiNotLoggedIn(t *testing.T) {
	restore := sessionMgr
	defer func() { sessionMgr = restore }()
	sessionMgr = session.NewManager(session.Config{})

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())

	err := runWhoami(cmd, nil)
	var cliErr *clierror.CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("error = %T, want *clierror.CLIError", err)
	}
	if cliErr.ExitCode != clierror.ExitAuth {
		t.Errorf("ExitCode = %d, want %d", cliErr.ExitCode, clierror.ExitAuth)
	}
}
