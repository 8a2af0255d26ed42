package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"firestige.xyz/nprint/internal/config"
	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/encoding"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Load a configuration file, apply defaults and check every value without
reading any capture.

Examples:
  nprint validate -c nprint.yml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configFile == "" {
			return fmt.Errorf("%w: no config file, use -c", core.ErrConfigInvalid)
		}
		return runValidate(configFile, cmd.OutOrStdout())
	},
}

func runValidate(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("INVALID: %w", err)
	}

	fmt.Fprintf(w, "VALID: protocols=%s width=%d group_by=%s output=%s/%s\n",
		cfg.Stack,
		encoding.StackWidth(cfg.Stack),
		cfg.GroupBy,
		cfg.Output.Format,
		cfg.Output.Compression,
	)
	return nil
}
