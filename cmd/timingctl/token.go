package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tversu/timing-bot/internal/interface/http/handlers"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Admin API token helpers",
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash [TOKEN]",
	Short: "Print the bcrypt hash for HTTP_ADMIN_TOKEN_HASH",
	Long:  "Hashes TOKEN, or the first line of stdin when TOKEN is omitted.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read token: %w", err)
			}
			token = strings.TrimSpace(line)
		}
		if token == "" {
			return fmt.Errorf("token must not be empty")
		}

		hash, err := handlers.HashToken(token)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	tokenCmd.AddCommand(tokenHashCmd)
	rootCmd.AddCommand(tokenCmd)
}
