// internal/cli/credentials.go
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/law-makers/appcrawl/internal/auth"
	"github.com/law-makers/appcrawl/internal/ui"
)

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Manage stored login passwords",
	Long: `Store and remove the passwords used for authentication.credentials in the config file.

Passwords are kept in your OS keyring. On CI or machines without a keyring they are
written to a 0600 file under the appcrawl data directory instead. When the config
names a username but no password, the crawl looks it up here.`,
	Example: `  # Store a password (prompted, not echoed)
  $ appcrawl credentials set qa@example.com

  # Pipe it in from a secret manager
  $ vault read -field=pw secret/qa | appcrawl credentials set qa@example.com

  # Remove it
  $ appcrawl credentials delete qa@example.com`,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <username>",
	Short: "Store the password for a username",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsSet,
}

var credentialsDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Remove the stored password for a username",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsDelete,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsDeleteCmd)
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	username := args[0]

	password, err := readPassword(cmd.ErrOrStderr(), os.Stdin, username)
	if err != nil {
		return err
	}
	if password == "" {
		return errors.New("password must not be empty")
	}

	if err := auth.SetPassword(username, password); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Stored password for ")+username)
	return nil
}

func runCredentialsDelete(cmd *cobra.Command, args []string) error {
	if err := auth.DeletePassword(args[0]); err != nil {
		return fmt.Errorf("failed to delete password: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), ui.Success("Removed password for ")+args[0])
	return nil
}

// readPassword prompts without echo on a terminal and otherwise reads one line from in.
func readPassword(prompt io.Writer, in *os.File, username string) (string, error) {
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprintf(prompt, "Password for %s: ", username)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
