package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"evmjit/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "evmjit",
	Short: "EVM JIT compilation context tools",
	Long: `evmjit builds the compilation context of the EVM JIT: the Runtime record
shared with the host, the RuntimeData, Env and Memory records behind it and
the host callback declarations. It can print the generated IR and the ABI
descriptor hosts use to check their own struct layouts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mode, err := cmd.Root().PersistentFlags().GetString("color")
		if err != nil {
			return err
		}
		enabled, err := resolveColor(mode, isTerminal(os.Stdout))
		if err != nil {
			return err
		}
		color.NoColor = !enabled
		return nil
	},
}

// main registers subcommands and persistent flags, then executes the root
// command. Any error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(abiCmd)
	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("config", "", "path to evmjit.toml (default: search upwards from the working directory)")
	rootCmd.PersistentFlags().String("target", "", "target triple (overrides [target].triple)")
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("timings", false, "show provider timing information")
	registerTraceFlags(rootCmd)
	registerProfileFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// resolveColor maps the --color flag onto a yes/no decision.
func resolveColor(mode string, tty bool) (bool, error) {
	switch strings.TrimSpace(strings.ToLower(mode)) {
	case "", "auto":
		return tty, nil
	case "on":
		return true, nil
	case "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected auto|on|off)", mode)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
