// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"firestige.xyz/nprint/internal/config"
)

var (
	// Global flags
	configFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nprint",
	Short: "nprint - encode network packets as fixed-width bit vectors",
	Long: `nprint turns captured packets into nPrint vectors: every header bit becomes
1 or 0, and every bit of a header that is not present becomes -1. Every packet
of a run has the same width, so the output can be fed to a model as is.

Supported protocols: ipv4, tcp, udp, payload.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"config file path (optional)")

	// Add subcommands
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(validateCmd)
}

// loadConfig reads the optional config file, lets changed flags override it
// and validates the result. bindings maps flag names to config paths.
func loadConfig(flags *pflag.FlagSet, bindings map[string]string) (*config.GlobalConfig, error) {
	v := config.NewViper()
	if configFile != "" {
		if err := config.ReadFile(v, configFile); err != nil {
			return nil, err
		}
	}
	if err := bindFlags(v, flags, bindings); err != nil {
		return nil, err
	}
	return config.Decode(v)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", name)
		}
		if err := v.BindPFlag(config.Key(key), flag); err != nil {
			return fmt.Errorf("bind flag %q: %w", name, err)
		}
	}
	return nil
}
