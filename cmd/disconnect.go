// Copyright (c) 2026 dbakit
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dbakit/cli/internal/keychain"
)

var disconnectForget bool

// disconnectCmd clears the saved default instance.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the saved default instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			fmt.Println("⚠️  Secure storage is not available on this system.")
			return nil
		}

		addr, loadErr := km.LoadDefaultInstance()
		if loadErr != nil || strings.TrimSpace(addr) == "" {
			fmt.Println("No default instance was saved.")
			return nil
		}

		if err := km.ClearDefaultInstance(); err != nil {
			return err
		}
		if disconnectForget {
			if err := km.ClearCredential(addr); err != nil {
				fmt.Println("⚠️  Default cleared, but removing its credential failed.")
				return err
			}
		}

		fmt.Printf("✅ Forgot %s\n", addr)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
	disconnectCmd.Flags().BoolVar(&disconnectForget, "forget-credentials", false, "Also remove the stored credential for the default instance")
}
