package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"dealflow/internal/config"
	"dealflow/internal/secrets"
)

func newSecretsCommand() *cobra.Command {
	secretsCmd := &cobra.Command{
		Use:         "secrets",
		Short:       "Manage credentials stored in the OS keyring",
		Annotations: map[string]string{"skipConfigLoad": "true"},
	}
	secretsCmd.AddCommand(newSecretsSetCommand())
	secretsCmd.AddCommand(newSecretsDeleteCommand())
	secretsCmd.AddCommand(newSecretsListCommand())
	return secretsCmd
}

func newSecretsSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> [value]",
		Short: "Store a credential; the value is read from stdin when omitted",
		Long:  "Store a credential in the OS keyring. Known names: " + strings.Join(config.SecretNames(), ", "),
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := ""
			if len(args) == 2 {
				value = args[1]
			} else {
				read, err := readSecret(cmd, args[0])
				if err != nil {
					return err
				}
				value = read
			}
			if err := secrets.Set(args[0], value); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in the keyring\n", strings.ToLower(args[0]))
			return nil
		},
	}
}

func newSecretsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a credential from the keyring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := secrets.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the keyring\n", strings.ToLower(args[0]))
			return nil
		},
	}
}

func newSecretsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show which credentials the keyring holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			stored := map[string]bool{}
			for _, name := range secrets.Stored() {
				stored[name] = true
			}
			rows := make([][]string, 0, len(config.SecretNames()))
			for _, name := range config.SecretNames() {
				rows = append(rows, []string{name, yesNo(stored[name])})
			}
			writeTable(cmd.OutOrStdout(), []string{"Name", "Stored"}, rows)
			return nil
		},
	}
}

// readSecret prompts on a terminal and otherwise reads the first line of
// stdin.
func readSecret(cmd *cobra.Command, name string) (string, error) {
	in := cmd.InOrStdin()
	if file, ok := in.(*os.File); ok && isatty.IsTerminal(file.Fd()) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Value for %s: ", name)
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read secret: %w", err)
	}
	value := strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(value) == "" {
		return "", errors.New("secret value is empty")
	}
	return value, nil
}
