package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/config"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/logger"
	"github.com/pateatharva/Steganography-And-Steganoanalysis-1/internal/service/ai"
)

// Version is the application version.
const Version = "0.1.0"

var (
	infoColor    = color.New(color.FgBlue).SprintFunc()
	successColor = color.New(color.FgGreen).SprintFunc()
	warningColor = color.New(color.FgYellow).SprintFunc()
	errorColor   = color.New(color.FgRed).SprintFunc()
)

func printInfo(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", infoColor("[*]"), fmt.Sprintf(format, args...))
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", successColor("[+]"), fmt.Sprintf(format, args...))
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", warningColor("[!]"), fmt.Sprintf(format, args...))
}

func printError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", errorColor("[-]"), fmt.Sprintf(format, args...))
}

// options are the flags shared by every subcommand.
type options struct {
	cfg     *config.Config
	verbose bool
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	opts := &options{cfg: cfg}
	root := &cobra.Command{
		Use:           "stegano",
		Short:         "Hide, recover and detect messages in images",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.CheckpointPath, "checkpoint", cfg.CheckpointPath, "Model checkpoint (.safetensors)")
	flags.Uint64Var(&cfg.WeightSeed, "seed", cfg.WeightSeed, "Seed for the random weights used when no checkpoint loads")
	flags.IntVar(&cfg.InferenceThreads, "threads", cfg.InferenceThreads, "Goroutines used inside one forward pass")
	flags.StringVar(&cfg.DatabaseURI, "db", cfg.DatabaseURI, "Database URI (sqlite:///file.db or postgres://...)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log model loading details")

	root.AddCommand(
		newEmbedCmd(opts),
		newExtractCmd(opts),
		newAnalyzeCmd(opts),
		newCheckpointCmd(opts),
		newMigrateCmd(opts),
	)
	return root
}

// loadModels builds the model context with the current flags.
func (o *options) loadModels(cmd *cobra.Command) (*ai.ModelContext, error) {
	log := logger.Nop()
	if o.verbose {
		var err error
		log, err = logger.New(logger.Options{Level: "info", Console: zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}})
		if err != nil {
			return nil, err
		}
	}
	models, err := ai.NewModelContext(ai.Options{
		CheckpointPath: o.cfg.CheckpointPath,
		Seed:           o.cfg.WeightSeed,
		Threads:        o.cfg.InferenceThreads,
		Logger:         log,
	})
	if err != nil {
		return nil, err
	}
	if !models.Loaded() {
		printWarning(cmd.ErrOrStderr(), "No checkpoint loaded, using %s", models.Source())
	}
	return models, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(config.Load())
	if err := root.ExecuteContext(ctx); err != nil {
		printError(os.Stderr, "%v", err)
		os.Exit(1)
	}
}
