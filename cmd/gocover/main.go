// GoCover renders Notion cover images.
//
// Usage:
//
//	gocover render -i <image> -o <file> [--request <path>] [options]
//	gocover palette -i <image> [-n 8]
//	gocover presets
//	gocover init [--request cover.toml] [--config gocover.toml]
//	gocover serve [--config gocover.toml] [--addr :8080]
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "gocover",
		Short:         "GoCover renders Notion cover images",
		Long:          `GoCover places one image on a solid, gradient or blurred background, adds an optional line of text and writes a PNG or JPEG sized for Notion covers.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	root.AddCommand(newPaletteCmd())
	root.AddCommand(newPresetsCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newServeCmd())
	return root
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", styleError.Render("Error:"), err)
	os.Exit(1)
}
