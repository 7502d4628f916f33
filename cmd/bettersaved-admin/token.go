package main

import (
	"context"
	"fmt"

	"bettersaved/infrastructure/di"
	"bettersaved/pkg/auth"

	"github.com/spf13/cobra"
)

var tokenRoles []string

// tokenCmd issues bearer tokens for the operator API
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage operator API tokens",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue OPERATOR",
	Short: "Print a signed bearer token for OPERATOR",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withAdmin(cmd, func(_ context.Context, admin *di.AdminContainer) error {
			if admin.Tokens == nil {
				return fmt.Errorf("JWT_SECRET is not configured")
			}
			token, err := admin.Tokens.Issue(args[0], tokenRoles...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		})
	},
}

func init() {
	tokenIssueCmd.Flags().StringSliceVar(&tokenRoles, "role", []string{auth.RoleAdmin}, "Roles granted by the token")
	tokenCmd.AddCommand(tokenIssueCmd)
}
