package commands

import (
	"github.com/forgebuild/forge/internal/app"
	"github.com/forgebuild/forge/internal/engine/composer"
	"github.com/spf13/cobra"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [stages...]",
		Short: "Build the given pipeline stages (default: all terminal stages)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			targets := args
			if len(targets) == 0 {
				targets = composer.TerminalStages()
			}
			force, _ := cmd.Flags().GetBool("force")
			parallelism, _ := cmd.Flags().GetInt("parallelism")

			overrides := app.ConfigOverrides{}
			overrides.Arch, _ = cmd.Flags().GetString("arch")
			overrides.PythonVersion, _ = cmd.Flags().GetString("python-version")
			overrides.ExtraIndexURL, _ = cmd.Flags().GetString("extra-index-url")
			overrides.DisableAVX512, _ = cmd.Flags().GetString("disable-avx512")
			overrides.AVX512BF16, _ = cmd.Flags().GetString("avx512bf16")
			overrides.AVX512VNNI, _ = cmd.Flags().GetString("avx512vnni")
			if cmd.Flags().Changed("integrity-check") {
				check, _ := cmd.Flags().GetBool("integrity-check")
				overrides.IntegrityCheck = &check
			}

			return c.app.Run(cmd.Context(), targets, app.RunOptions{
				Force:       force,
				Parallelism: parallelism,
				Overrides:   overrides,
			})
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Force rebuild, bypassing the stage cache")
	cmd.Flags().IntP("parallelism", "p", 0, "Maximum concurrently building stages (0 = one per CPU)")
	cmd.Flags().String("arch", "", "Override the configured target architecture")
	cmd.Flags().String("python-version", "", "Override the configured Python version")
	cmd.Flags().String("extra-index-url", "", "Override the auxiliary package index URL")
	cmd.Flags().String("disable-avx512", "", "Override the AVX512 disable toggle (on|off)")
	cmd.Flags().String("avx512bf16", "", "Override the AVX512BF16 toggle (on|off)")
	cmd.Flags().String("avx512vnni", "", "Override the AVX512VNNI toggle (on|off)")
	cmd.Flags().Bool("integrity-check", false, "Override the repository integrity gate")
	return cmd
}
