package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	configfile "github.com/marginalia-labs/marginalia-cli/internal/adapters/driven/config/file"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage the service access token",
	Long: `Store, inspect, and remove the marginalia access token.

The token is kept in the config file with restricted permissions and is
attached to every request the sync engine makes.

Examples:
  # Store a token interactively (input is hidden)
  marginalia auth login

  # Store a token non-interactively
  marginalia auth login --token "YOUR_TOKEN"

  # Check whether a token is configured
  marginalia auth status

  # Remove the stored token
  marginalia auth logout`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store an access token",
	RunE:  runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current authentication state",
	RunE:  runAuthStatus,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	RunE:  runAuthLogout,
}

// Flags for auth login.
var authLoginToken string

func init() {
	authLoginCmd.Flags().StringVar(
		&authLoginToken, "token", "", "Access token (prompted when omitted)")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authLogoutCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, _ []string) error {
	if err := setupConfig(); err != nil {
		return err
	}

	token := strings.TrimSpace(authLoginToken)
	if token == "" {
		var err error
		token, err = promptToken(cmd)
		if err != nil {
			return err
		}
	}
	if token == "" {
		return errors.New("no token provided")
	}

	if err := configStore.Set(configfile.KeyToken, token); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}

	cmd.Println("Token saved.")
	return nil
}

func runAuthStatus(cmd *cobra.Command, _ []string) error {
	if err := setupConfig(); err != nil {
		return err
	}

	token := configStore.GetString(configfile.KeyToken)
	if token == "" {
		cmd.Println("Not authenticated. Run 'marginalia auth login' to store a token.")
		return nil
	}

	cmd.Printf("Authenticated (token %s)\n", maskToken(token))
	if baseURL := configStore.GetString(configfile.KeyBaseURL); baseURL != "" {
		cmd.Printf("Service: %s\n", baseURL)
	}
	return nil
}

func runAuthLogout(cmd *cobra.Command, _ []string) error {
	if err := setupConfig(); err != nil {
		return err
	}

	if configStore.GetString(configfile.KeyToken) == "" {
		cmd.Println("No token stored.")
		return nil
	}

	if err := configStore.Delete(configfile.KeyToken); err != nil {
		return fmt.Errorf("removing token: %w", err)
	}
	cmd.Println("Token removed.")
	return nil
}

// promptToken reads a token from the user, without echo when stdin is a
// terminal.
func promptToken(cmd *cobra.Command) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		cmd.Print("Access token: ")
		raw, err := term.ReadPassword(fd)
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return strings.TrimSpace(string(raw)), nil
	}

	// Piped input, e.g. 'echo $TOKEN | marginalia auth login'.
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// maskToken keeps only enough of the token to recognise it.
func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}
