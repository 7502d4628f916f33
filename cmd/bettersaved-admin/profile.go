package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"bettersaved/application/commands"
	"bettersaved/application/commands/bus"
	"bettersaved/application/queries"
	"bettersaved/infrastructure/di"

	"github.com/spf13/cobra"
)

var credentialFile string

// profileCmd groups the profile subcommands
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and change user profiles",
	Long: `Inspect and change user profiles.

USER is either a user ID such as user_42 or the bare Telegram ID.

Available subcommands:
  show       - Print the profile summary
  connect    - Store a Google credential for the user
  disconnect - Remove the stored credential
  delete     - Delete the profile`,
}

var profileShowCmd = &cobra.Command{
	Use:   "show USER",
	Short: "Print the profile summary",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileShow,
}

var profileConnectCmd = &cobra.Command{
	Use:   "connect USER",
	Short: "Store a Google credential for the user",
	Long: `Store a Google OAuth credential for the user. The credential is the JSON
token document, read from --credential-file or standard input.`,
	Args: cobra.ExactArgs(1),
	RunE: runProfileConnect,
}

var profileDisconnectCmd = &cobra.Command{
	Use:   "disconnect USER",
	Short: "Remove the stored credential",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendForUser(cmd, args[0], func(userID string) bus.Command {
			return commands.DisconnectStorageCommand{UserID: userID}
		}, "disconnected")
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete USER",
	Short: "Delete the profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendForUser(cmd, args[0], func(userID string) bus.Command {
			return commands.DeleteProfileCommand{UserID: userID}
		}, "deleted")
	},
}

// resourcesCmd groups the Drive resource subcommands
var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Manage the Drive folders and ledger of a user",
}

var resourcesRepairCmd = &cobra.Command{
	Use:   "repair USER",
	Short: "Recreate missing folders and the ledger spreadsheet",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourcesRepair,
}

func init() {
	profileConnectCmd.Flags().StringVarP(&credentialFile, "credential-file", "f", "", "File holding the credential JSON (default: stdin)")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileConnectCmd)
	profileCmd.AddCommand(profileDisconnectCmd)
	profileCmd.AddCommand(profileDeleteCmd)

	resourcesCmd.AddCommand(resourcesRepairCmd)
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	return withAdmin(cmd, func(ctx context.Context, admin *di.AdminContainer) error {
		return showProfile(ctx, cmd, admin, userID)
	})
}

func runProfileConnect(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	var raw []byte
	if credentialFile != "" {
		raw, err = os.ReadFile(credentialFile)
	} else {
		raw, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return fmt.Errorf("failed to read credential: %w", err)
	}

	return withAdmin(cmd, func(ctx context.Context, admin *di.AdminContainer) error {
		command := commands.ConnectStorageCommand{UserID: userID, Credential: strings.TrimSpace(string(raw))}
		if err := admin.CommandBus.Send(ctx, command); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s connected\n", userID)
		return nil
	})
}

func runResourcesRepair(cmd *cobra.Command, args []string) error {
	userID, err := parseUserID(args[0])
	if err != nil {
		return err
	}

	return withAdmin(cmd, func(ctx context.Context, admin *di.AdminContainer) error {
		if err := admin.CommandBus.Send(ctx, commands.RepairResourcesCommand{UserID: userID}); err != nil {
			return err
		}
		return showProfile(ctx, cmd, admin, userID)
	})
}

func sendForUser(cmd *cobra.Command, arg string, build func(userID string) bus.Command, done string) error {
	userID, err := parseUserID(arg)
	if err != nil {
		return err
	}

	return withAdmin(cmd, func(ctx context.Context, admin *di.AdminContainer) error {
		if err := admin.CommandBus.Send(ctx, build(userID)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", userID, done)
		return nil
	})
}

func showProfile(ctx context.Context, cmd *cobra.Command, admin *di.AdminContainer, userID string) error {
	result, err := admin.QueryBus.Ask(ctx, queries.GetProfileQuery{UserID: userID})
	if err != nil {
		return err
	}
	return printJSON(cmd, result)
}
