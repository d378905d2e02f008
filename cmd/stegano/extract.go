package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
)

func newExtractCmd(opts *options) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "extract IMAGE",
		Short: "Read the hidden message from an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := codec.DecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			models, err := opts.loadModels(cmd)
			if err != nil {
				return err
			}
			res, err := ai.NewEngine(models).Extract(img)
			if err != nil {
				return err
			}
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			}
			printSuccess(cmd.OutOrStdout(), "Message: %q", res.Message)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print only the message")
	return cmd
}
