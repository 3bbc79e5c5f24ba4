package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Kacegz/teactl/cmd/teactl/cmd"
	"github.com/Kacegz/teactl/pkg/clierror"
)

func main() {
	if err := cmd.Execute(); err != nil {
		var cliErr *clierror.CLIError
		if errors.As(err, &cliErr) {
			clierror.PrintError(cliErr, cmd.OutputFormat())
			os.Exit(cliErr.ExitCode)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(clierror.ExitGeneral)
	}
}
