package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/encoding"
)

var (
	schemaProtocols []string
	schemaFormat    string
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the column layout of a protocol stack",
	Long: `Print the columns an encode run with the same protocols would produce.

The text format prints one column name per line. The yaml format lists every
protocol with its fields, bit offsets and widths.

Example:
  nprint schema -p ipv4,tcp
  nprint schema -p ipv4,udp,payload --format yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, err := core.ParseStackNames(schemaProtocols)
		if err != nil {
			return err
		}
		if err := stack.Validate(); err != nil {
			return err
		}
		return runSchema(stack, schemaFormat, cmd.OutOrStdout())
	},
}

func init() {
	schemaCmd.Flags().StringSliceVarP(&schemaProtocols, "protocols", "p", []string{"ipv4", "tcp", "udp"},
		"protocol stack in output order")
	schemaCmd.Flags().StringVar(&schemaFormat, "format", "text", "output format: text or yaml")
}

type protocolSchema struct {
	Protocol string           `yaml:"protocol"`
	Width    int              `yaml:"width"`
	Fields   []encoding.Field `yaml:"fields"`
}

type stackSchema struct {
	Width     int              `yaml:"width"`
	Protocols []protocolSchema `yaml:"protocols"`
}

func runSchema(stack core.Stack, format string, w io.Writer) error {
	switch format {
	case "text":
		for _, c := range encoding.Columns(stack) {
			if _, err := fmt.Fprintln(w, c); err != nil {
				return err
			}
		}
		return nil
	case "yaml":
		doc := stackSchema{Width: encoding.StackWidth(stack)}
		for _, p := range stack {
			l := encoding.LayoutOf(p)
			doc.Protocols = append(doc.Protocols, protocolSchema{
				Protocol: p.String(),
				Width:    l.Width(),
				Fields:   l.Fields,
			})
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode schema: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: schema format %q", core.ErrUnsupportedFormat, format)
	}
}
