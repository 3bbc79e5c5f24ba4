// Package cmd implements the teactl CLI commands.
package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Kacegz/teactl/pkg/catalog"
	"github.com/Kacegz/teactl/pkg/policy"
	"github.com/Kacegz/teactl/pkg/session"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	outputFormat string
	serverFlag   string
	dbPath       string
	verbose      bool

	// Shared instances, wired in PersistentPreRunE.
	sessionStore *session.Store
	sessionMgr   *session.Manager
	apiClient    *catalog.Client
	gate         *policy.Evaluator
	logger       *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "teactl",
	Short: "CLI for the tea catalog service",
	Long: `teactl is a command-line client for the tea catalog service.

It lets you browse teas, manage your own entries, and rate teas once
each. Log in with 'teactl login'; your session is stored locally and
reused until it expires or you log out.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "completion" || cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		path := dbPath
		if path == "" {
			path = session.DefaultStorePath()
		}

		var err error
		sessionStore, err = session.OpenStore(path)
		if err != nil {
			return fmt.Errorf("failed to open session store: %w", err)
		}

		sessionMgr = session.NewManager(session.Config{
			Store:  sessionStore,
			Logger: logger,
		})

		server := GetServer()
		if server != "" {
			apiClient = catalog.New(server, catalog.WithHTTPClient(&http.Client{
				Timeout:   30 * time.Second,
				Transport: session.NewTransport(sessionMgr),
			}))
			sessionMgr.SetAuthority(apiClient)
		}

		gate, err = policy.NewEvaluator(logger)
		if err != nil {
			return fmt.Errorf("failed to load gating policies: %w", err)
		}

		return sessionMgr.Hydrate(cmd.Context())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if sessionStore != nil {
			sessionStore.Close()
		}
	},
}

var completionCmd = &cobra.Command{
	Use:                   "completion [bash|zsh|fish|powershell]",
	Short:                 "Generate shell completion scripts",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			return rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			return rootCmd.GenFishCompletion(os.Stdout, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
		default:
			return fmt.Errorf("unknown shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "Output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverFlag, "server", "", "Catalog server URL (overrides TEACTL_SERVER and config)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session database path (default: ~/.local/share/teactl/teactl.db)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.AddCommand(completionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// OutputFormat returns the selected output format. Used by main for
// error rendering.
func OutputFormat() string {
	return outputFormat
}

// requireClient errors when no server URL is configured.
func requireClient() (*catalog.Client, error) {
	if apiClient == nil {
		return nil, fmt.Errorf("no server configured: pass --server, set TEACTL_SERVER, or log in once with --server")
	}
	return apiClient, nil
}

// awaitElevation blocks until the session's elevation query has settled,
// so gating decisions don't race the asynchronous resolution.
func awaitElevation(cmd *cobra.Command) session.Snapshot {
	select {
	case <-sessionMgr.ElevationResolved():
	case <-cmd.Context().Done():
	}
	return sessionMgr.Snapshot()
}

// formatOutput handles output formatting based on the --output flag.
func formatOutput(data interface{}) error {
	switch outputFormat {
	case "json":
		return outputJSON(data)
	case "yaml":
		return outputYAML(data)
	default:
		// Table format is handled by each command
		return nil
	}
}

func outputJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func outputYAML(data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
