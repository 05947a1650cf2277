package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/xob0t/GoCover/clients/server"
	"github.com/xob0t/GoCover/pkg/cover"
	"github.com/xob0t/GoCover/pkg/editor"
)

func newPaletteCmd() *cobra.Command {
	var input string
	var n int

	cmd := &cobra.Command{
		Use:   "palette",
		Short: "Print the dominant colours of an image",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("open image: %w", err)
			}
			img, err := cover.LoadRaster(f, cover.RasterOptions{Source: input})
			f.Close()
			if err != nil {
				return err
			}
			defer img.Release()

			p, err := cover.ExtractPalette(img.Oriented(), n)
			if err != nil {
				return err
			}
			printPalette(cmd.OutOrStdout(), p)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "source image")
	cmd.Flags().IntVarP(&n, "count", "n", cover.DefaultPaletteSize, "number of colours")
	cmd.MarkFlagRequired("input")
	return cmd
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the Notion cover size presets",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, styleTitle.Render("Size presets"))
			rows := make([][]string, 0, len(editor.Presets))
			for _, p := range editor.Presets {
				sz := editor.SafeZone(p.Width, p.Height)
				rows = append(rows, []string{
					p.Name,
					strconv.Itoa(p.Width) + "x" + strconv.Itoa(p.Height),
					fmt.Sprintf("x %d-%d", sz.Min.X, sz.Max.X),
				})
			}
			table(w, []string{"NAME", "SIZE", "SAFE ZONE"}, rows)
			fmt.Fprintln(w, styleDim.Render("  Recommended ratio 5:2. Use --preset with render."))
		},
	}
}

func newInitCmd() *cobra.Command {
	var requestOut, configOut string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a sample render request and server config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeSample(requestOut, cover.ExampleRequestTOML(), force); err != nil {
				return err
			}
			if err := writeSample(configOut, server.ExampleConfig, force); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Created: %s, %s\n", requestOut, configOut)
			fmt.Fprintln(w, "Run: gocover render -i photo.jpg -o cover.png --request "+requestOut)
			return nil
		},
	}
	cmd.Flags().StringVar(&requestOut, "request", "cover.toml", "output path for the sample request")
	cmd.Flags().StringVar(&configOut, "config", "gocover.toml", "output path for the sample server config")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")
	return cmd
}

func writeSample(path, content string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func newServeCmd() *cobra.Command {
	var configPath, addr, fontDir string
	var open bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the editor HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg := server.DefaultConfig()
			if configPath != "" {
				loaded, err := server.LoadConfig(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("font-dir") {
				cfg.FontDir = fontDir
			}
			if cmd.Flags().Changed("open") {
				cfg.OpenBrowser = open
			}
			return server.Serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "server config file (TOML)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&fontDir, "font-dir", "", "directory with <Family>-<Weight>.ttf files")
	cmd.Flags().BoolVar(&open, "open", false, "open the health endpoint in a browser")
	return cmd
}
