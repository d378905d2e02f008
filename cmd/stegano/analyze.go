package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/imaging/codec"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".bmp": true, ".tif": true, ".tiff": true, ".webp": true,
}

// imageFiles lists the images directly inside dir, sorted by name.
func imageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

type analyzeResult struct {
	path    string
	verdict ai.Verdict
	err     error
}

func newAnalyzeCmd(opts *options) *cobra.Command {
	var dir string
	var workers int

	cmd := &cobra.Command{
		Use:   "analyze [IMAGE...]",
		Short: "Classify images as stego or clean",
		RunE: func(cmd *cobra.Command, args []string) error {
			files := args
			if dir != "" {
				found, err := imageFiles(dir)
				if err != nil {
					return fmt.Errorf("reading %s: %w", dir, err)
				}
				files = append(files, found...)
			}
			if len(files) == 0 {
				return fmt.Errorf("no images given")
			}

			models, err := opts.loadModels(cmd)
			if err != nil {
				return err
			}
			engine := ai.NewEngine(models)

			bar := progressbar.NewOptions(len(files),
				progressbar.OptionSetDescription("Analyzing"),
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionShowCount(),
			)

			results := make([]analyzeResult, len(files))
			jobs := make(chan int)
			var wg sync.WaitGroup
			for i := 0; i < max(workers, 1); i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for idx := range jobs {
						results[idx] = analyzeFile(engine, files[idx])
						bar.Add(1)
					}
				}()
			}
		feed:
			for i := range files {
				select {
				case jobs <- i:
				case <-cmd.Context().Done():
					break feed
				}
			}
			close(jobs)
			wg.Wait()
			bar.Finish()
			fmt.Fprintln(cmd.ErrOrStderr())

			w := cmd.OutOrStdout()
			stego, failed := 0, 0
			for _, r := range results {
				switch {
				case r.path == "":
					continue
				case r.err != nil:
					failed++
					printError(w, "%s: %v", r.path, r.err)
				case r.verdict.IsStego:
					stego++
					printWarning(w, "%s: stego (confidence %.2f)", r.path, r.verdict.Confidence)
				default:
					printSuccess(w, "%s: clean (confidence %.2f)", r.path, r.verdict.Confidence)
				}
			}
			printInfo(w, "%d image(s), %d flagged, %d failed", len(files), stego, failed)
			return cmd.Context().Err()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Analyze every image in this directory")
	cmd.Flags().IntVar(&workers, "workers", 2, "Images analyzed in parallel")
	return cmd
}

func analyzeFile(engine *ai.Engine, path string) analyzeResult {
	img, err := codec.DecodeFile(path)
	if err != nil {
		return analyzeResult{path: path, err: err}
	}
	res, err := engine.Analyze(img)
	if err != nil {
		return analyzeResult{path: path, err: err}
	}
	return analyzeResult{path: path, verdict: res.Verdict}
}
