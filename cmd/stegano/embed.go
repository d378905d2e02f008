package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/dto"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
)

func newEmbedCmd(opts *options) *cobra.Command {
	var message, out string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "embed COVER",
		Short: "Hide a message of up to 32 characters in an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cover, err := codec.DecodeFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			models, err := opts.loadModels(cmd)
			if err != nil {
				return err
			}

			res, err := ai.NewEngine(models).Embed(cover, message)
			if err != nil {
				return err
			}
			if err := codec.WritePNG(out, res.Stego); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}

			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(dto.HideResponse{
					Success:          true,
					StegoImage:       out,
					CoverImage:       args[0],
					Message:          res.Message,
					CoverMetrics:     res.CoverReport,
					StegoMetrics:     res.StegoReport,
					CoverStats:       res.CoverStats,
					StegoStats:       res.StegoStats,
					ModelPerformance: res.Performance(),
				})
			}

			printSuccess(w, "Stego image written to %s", out)
			printInfo(w, "Message: %q", res.Message)
			printInfo(w, "PSNR %.2f dB, SSIM %.4f, BER %.4f", res.StegoReport.PSNR, res.StegoReport.SSIM, res.StegoReport.BER)
			perf := res.Performance()
			printInfo(w, "Quality %.2f%%, similarity %.2f%%, accuracy %.2f%%", perf.QualityScore, perf.SimilarityScore, perf.EmbeddingAccuracy)
			if res.StegoReport.BER > 0 {
				printWarning(w, "%d of %d bits do not read back", int(res.StegoReport.BER*float64(len(res.Bits))+0.5), len(res.Bits))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Message to hide")
	cmd.Flags().StringVarP(&out, "out", "o", "stego.png", "Output PNG path")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}
