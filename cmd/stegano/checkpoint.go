package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
)

func newCheckpointCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Manage model checkpoints",
	}

	var out string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the seeded random weights as a checkpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := ai.NewModelContext(ai.Options{
				Seed:    opts.cfg.WeightSeed,
				Threads: opts.cfg.InferenceThreads,
			})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return fmt.Errorf("creating %s: %w", filepath.Dir(out), err)
			}
			if err := models.Save(out); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Wrote %d parameters (seed %d) to %s", models.ParameterCount(), opts.cfg.WeightSeed, out)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&out, "out", "o", opts.cfg.CheckpointPath, "Destination file")

	cmd.AddCommand(initCmd)
	return cmd
}
