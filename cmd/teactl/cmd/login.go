package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Kacegz/teactl/pkg/catalog"
	"github.com/Kacegz/teactl/pkg/clierror"
	"github.com/Kacegz/teactl/pkg/session"
)

var okFmt = color.New(color.FgGreen).SprintFunc()

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Username")
	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringP("username", "u", "", "Username")
	registerCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(registerCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the catalog server",
	Long: `Authenticate against the catalog server and store the session
credential locally. Subsequent commands reuse it until it expires or
you run 'teactl logout'.

Examples:
  teactl login -u alice
  teactl login --server https://tea.example.com -u alice`,
	RunE: runLogin,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	Long:  `Create a new account on the catalog server, then log in separately.`,
	RunE:  runRegister,
}

func runLogin(cmd *cobra.Command, args []string) error {
	if _, err := requireClient(); err != nil {
		return err
	}

	username, password, err := credentialsFromFlags(cmd)
	if err != nil {
		return err
	}

	if err := sessionMgr.Login(cmd.Context(), username, password); err != nil {
		return mapLoginError(err)
	}

	// Remember the server so the flag isn't needed next time.
	if serverFlag != "" {
		cfg, cfgErr := LoadConfig()
		if cfgErr == nil {
			cfg.Server = serverFlag
			if saveErr := SaveConfig(cfg); saveErr != nil {
				logger.Warn("failed to save config", "error", saveErr)
			}
		}
	}

	snap := awaitElevation(cmd)
	fmt.Printf("%s Logged in as %s\n", okFmt("✓"), snap.Claims.Subject)
	if snap.Elevated {
		fmt.Println("  Role: admin")
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	api, err := requireClient()
	if err != nil {
		return err
	}

	username, password, err := credentialsFromFlags(cmd)
	if err != nil {
		return err
	}

	if err := api.Register(cmd.Context(), username, password); err != nil {
		return mapLoginError(err)
	}

	fmt.Printf("%s Registered '%s'. Log in with 'teactl login -u %s'.\n", okFmt("✓"), username, username)
	return nil
}

// credentialsFromFlags reads the username and password flags, prompting on
// stdin for whichever is missing.
func credentialsFromFlags(cmd *cobra.Command) (string, string, error) {
	username, _ := cmd.Flags().GetString("username")
	password, _ := cmd.Flags().GetString("password")
	reader := bufio.NewReader(os.Stdin)

	if username == "" {
		fmt.Print("Username: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(line)
	}
	if username == "" {
		return "", "", fmt.Errorf("username is required")
	}

	if password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return "", "", fmt.Errorf("failed to read password: %w", err)
		}
		password = strings.TrimSpace(line)
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}

	return username, password, nil
}

// mapLoginError converts authority and transport failures from the login
// and register flows into user-facing CLI errors.
func mapLoginError(err error) error {
	switch {
	case errors.Is(err, session.ErrCredentialInvalid):
		return clierror.AuthFailed("server returned an unusable credential")
	case catalog.IsAuthFailed(err):
		var apiErr *catalog.APIError
		errors.As(err, &apiErr)
		return clierror.AuthFailed(apiErr.Message)
	case catalog.IsUnavailable(err):
		return clierror.ConnectionFailed(GetServer())
	default:
		var apiErr *catalog.APIError
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			return clierror.AuthFailed(apiErr.Message)
		}
		return err
	}
}
