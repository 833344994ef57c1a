package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"mediafetch/pkg/auth"
	"mediafetch/pkg/ui"
)

var (
	loginAccount string
	loginBaseURL string
	tokenStdin   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage feed tokens",
	Long: `Manage stored feed tokens.

Tokens are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - ` + auth.EnvToken + ` environment variable (read only)

Never share your tokens or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store a feed token securely",
	Example: `  # Interactive login
  mediafetch auth login --account work

  # Non-interactive, token on stdin
  echo "$TOKEN" | mediafetch auth login work --token-stdin`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <name>",
	Short: "Remove a stored token",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored accounts",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Explain how to obtain a feed token",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		auth.WriteTokenGuide(ui.Output)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd, logoutCmd, listCmd, guideCmd)

	loginCmd.Flags().StringVarP(&loginAccount, "account", "a", "", "account name")
	loginCmd.Flags().StringVar(&loginBaseURL, "base-url", "", "feed base URL used with this token")
	loginCmd.Flags().BoolVar(&tokenStdin, "token-stdin", false, "read the token from stdin")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := loginAccount
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if name == "" {
		if tokenStdin {
			return errors.New("an account name is required with --token-stdin")
		}
		fmt.Fprint(ui.Output, "Account name: ")
		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read account name: %w", err)
		}
		name = strings.TrimSpace(input)
	}
	if name == "" {
		return errors.New("account name is required")
	}

	if existing, _ := manager.Retrieve(name); existing != nil && !tokenStdin {
		fmt.Fprintf(ui.Output, "Account '%s' already exists. Replace its token? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	var token string
	if tokenStdin {
		input, err := io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(string(input))
	} else {
		fmt.Fprint(ui.Output, "Token (hidden): ")
		token, err = readSecret(reader)
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}
	if token == "" {
		return errors.New("token is required")
	}

	account := &auth.Account{
		Name:    name,
		Token:   token,
		BaseURL: strings.TrimSpace(loginBaseURL),
	}
	if err := manager.Store(account); err != nil {
		return err
	}

	ui.PrintSuccess(fmt.Sprintf("Token stored for account '%s' (%s)", name, auth.MaskToken(token)))
	fmt.Fprintf(ui.Output, "\nUse it with:\n  mediafetch fetch <channel> --account %s\n", name)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Account removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "Use 'mediafetch auth login' to add one")
		return nil
	}

	ui.PrintHighlight("Stored Accounts")
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		marker := ""
		if i == 0 {
			marker = " (default)"
		}
		fmt.Fprintf(ui.Output, "%d. %s%s\n", i+1, sanitized.Name, marker)
		fmt.Fprintf(ui.Output, "   Token: %s\n", sanitized.Token)
		if sanitized.BaseURL != "" {
			fmt.Fprintf(ui.Output, "   Feed: %s\n", sanitized.BaseURL)
		}
		if !sanitized.LastModified.IsZero() {
			fmt.Fprintf(ui.Output, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

// readSecret reads a line without echo when stdin is a terminal.
func readSecret(fallback *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Output)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := fallback.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
