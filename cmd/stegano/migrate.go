package main

import (
	"github.com/spf13/cobra"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/database"
)

func newMigrateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			driver, _, err := database.Parse(opts.cfg.DatabaseURI)
			if err != nil {
				return err
			}
			store, err := database.Open(cmd.Context(), opts.cfg.DatabaseURI)
			if err != nil {
				return err
			}
			defer store.Close()
			printSuccess(cmd.OutOrStdout(), "Schema is up to date (%s)", driver)
			return nil
		},
	}
}
