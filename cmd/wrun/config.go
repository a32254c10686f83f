// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"wrun-cli/internal/config"
)

var (
	configShowFormat string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage wrun configuration",
		Long: `Manage wrun configuration.

Configuration is stored in:
  - Linux: ~/.config/wrun/config.cue
  - macOS: ~/Library/Application Support/wrun/config.cue
  - Windows: %APPDATA%\wrun\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

func init() {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	}
	showCmd.Flags().StringVar(&configShowFormat, "format", "cue", "output format: cue or toml")

	configCmd.AddCommand(showCmd)

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create a default config file if none exists",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return err
			}
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(SuccessStyle.Render("✓ ") + "config at " +
				filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})
}

func showConfig() error {
	switch configShowFormat {
	case "cue":
		fmt.Print(config.GenerateCUE(cfg))
		return nil
	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to render config as TOML: %w", err)
		}
		fmt.Print(string(data))
		return nil
	default:
		return fmt.Errorf("unknown config format %q (must be cue or toml)", configShowFormat)
	}
}
