package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lopataa/schoolshop/pkg/auth"
)

// shop hash — bcrypt a password for ADMIN_PASSWORD_HASH.
var hashCmd = &cobra.Command{
	Use:   "hash <password>",
	Short: "Print the bcrypt hash of a password (for ADMIN_PASSWORD_HASH)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}
