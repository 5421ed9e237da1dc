// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"dbakit/cli/internal/registry"
)

var (
	serverAddGroup    string
	serverAddDatabase string
)

var serversCmd = &cobra.Command{
	Use:   "servers",
	Short: "Manage the saved server inventory",
	Long: `Saved servers give instances short names and optional groups. A saved name
works wherever an address does, and --group fans a command out over every
member. The inventory is a plain YAML file in the config directory;
credentials stay in the OS keychain.`,
}

var serversListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved servers",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load()
		if err != nil {
			return err
		}
		entries := reg.Sorted()

		if flagOutput == outputJSON {
			return printJSON(entries)
		}
		if len(entries) == 0 {
			fmt.Println("No saved servers. Add one with: dbakit servers add <name> <address>")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Name, e.Address, e.Group, e.Database})
		}
		renderTable([]string{"Name", "Address", "Group", "Database"}, rows)
		return nil
	},
}

var serversAddCmd = &cobra.Command{
	Use:   "add <name> <address>",
	Short: "Save a server under a short name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load()
		if err != nil {
			return err
		}
		entry := registry.Entry{
			Name:     args[0],
			Address:  args[1],
			Group:    serverAddGroup,
			Database: serverAddDatabase,
		}
		if err := reg.Add(entry); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("✅ Saved %s as %s\n", args[1], args[0])
		return nil
	},
}

var serversRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a saved server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := registry.Load()
		if err != nil {
			return err
		}
		if err := reg.Remove(args[0]); err != nil {
			return err
		}
		if err := reg.Save(); err != nil {
			return err
		}
		fmt.Printf("✅ Removed %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serversCmd)
	serversCmd.AddCommand(serversListCmd)
	serversCmd.AddCommand(serversAddCmd)
	serversCmd.AddCommand(serversRemoveCmd)

	serversAddCmd.Flags().StringVar(&serverAddGroup, "group", "", "Group this server for fan-out with --group")
	serversAddCmd.Flags().StringVar(&serverAddDatabase, "database", "", "Default database when connecting to this server")
}
