package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lopataa/schoolshop/config"
	"github.com/lopataa/schoolshop/database/seeders"
	"github.com/lopataa/schoolshop/pkg/database"
)

// shop seed — populate an empty catalogue with demo products.
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Run all database seeders",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := database.Connect(ctx); err != nil {
			return err
		}
		defer database.Disconnect(ctx)

		fmt.Println("Running seeders…")
		return seeders.RunAll(ctx, database.DB)
	},
}
