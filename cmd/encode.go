package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"firestige.xyz/nprint/internal/config"
	"firestige.xyz/nprint/internal/core"
	"firestige.xyz/nprint/internal/export"
	"firestige.xyz/nprint/internal/flow"
	"firestige.xyz/nprint/internal/log"
	"firestige.xyz/nprint/internal/metrics"
	"firestige.xyz/nprint/internal/nprint"
	"firestige.xyz/nprint/internal/pipeline"
	"firestige.xyz/nprint/internal/source/file"
)

// stdoutPath writes the encoded rows to standard output.
const stdoutPath = "-"

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a capture file into nPrint rows",
	Long: `Encode every frame of a pcap or pcapng capture into one nPrint row.

Frames are grouped by bidirectional 5-tuple unless --group-by none is given.
Flag values override the config file.

Example:
  nprint encode -r in.pcap -o out.npy -p ipv4,tcp,udp
  nprint encode -r in.pcapng -o out.csv.zst --format csv --compression zstd --anonymize`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags(), encodeFlagKeys)
		if err != nil {
			return err
		}
		if err := log.Init(cfg.Log); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runEncode(ctx, cfg, cmd.OutOrStdout())
	},
}

// encodeFlagKeys maps encode flags to config paths.
var encodeFlagKeys = map[string]string{
	"read":             "input",
	"output":           "output.path",
	"protocols":        "protocols",
	"anonymize":        "anonymize",
	"max-packets":      "max_packets",
	"group-by":         "group_by",
	"format":           "output.format",
	"compression":      "output.compression",
	"schema":           "schema_path",
	"metrics-textfile": "metrics.textfile",
}

func init() {
	f := encodeCmd.Flags()
	f.StringP("read", "r", "", "input capture file (pcap or pcapng)")
	f.StringP("output", "o", "", "output file, - for stdout")
	f.StringSliceP("protocols", "p", []string{"ipv4", "tcp", "udp"}, "protocol stack in output order")
	f.Bool("anonymize", false, "zero IPv4 addresses and TCP ports")
	f.Int("max-packets", 0, "packets kept per flow, 0 for unlimited")
	f.String("group-by", flow.GroupByFlow, "grouping: flow or none")
	f.String("format", export.FormatNpy, "output format: npy or csv")
	f.String("compression", export.CompressionNone, "output compression: none, gzip, zstd or lz4")
	f.String("schema", "", "write the column names to this file, one per line")
	f.String("metrics-textfile", "", "write Prometheus metrics to this textfile when done")
}

// runEncode runs one encode job described by cfg. The summary line goes to
// out unless the rows themselves are written there.
func runEncode(ctx context.Context, cfg *config.GlobalConfig, out io.Writer) error {
	if cfg.Input == "" {
		return fmt.Errorf("%w: no input file, use -r", core.ErrConfigInvalid)
	}
	if cfg.Output.Path == "" {
		return fmt.Errorf("%w: no output file, use -o", core.ErrConfigInvalid)
	}

	src, err := file.Open(cfg.Input)
	if err != nil {
		return err
	}
	defer src.Close()

	opts := export.Options{
		Format:      cfg.Output.Format,
		Compression: cfg.Output.Compression,
		Columns:     nprint.Schema(cfg.Stack),
	}
	if ext := export.Extension(opts.Compression); ext != "" && !strings.HasSuffix(cfg.Output.Path, ext) {
		slog.Warn("output path lacks the compression suffix", "path", cfg.Output.Path, "suffix", ext)
	}
	var writer export.Writer
	if cfg.Output.Path == stdoutPath {
		writer, err = export.New(out, opts)
	} else {
		writer, err = export.Create(cfg.Output.Path, opts)
	}
	if err != nil {
		return err
	}

	p, err := pipeline.New(pipeline.Config{
		Source: src,
		Flow: flow.Config{
			Stack:      cfg.Stack,
			MaxPackets: cfg.MaxPackets,
			GroupBy:    cfg.GroupBy,
		},
		Anonymize: cfg.Anonymize,
		Writer:    writer,
	})
	if err != nil {
		writer.Close()
		return err
	}

	stats, runErr := p.Run(ctx)
	if err := errors.Join(runErr, writer.Close()); err != nil {
		return fmt.Errorf("encode %s: %w", cfg.Input, err)
	}

	if cfg.SchemaPath != "" {
		if err := writeSchemaFile(cfg.SchemaPath, opts.Columns); err != nil {
			return err
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("metrics not written", "path", cfg.Metrics.Textfile, "error", err)
		}
	}

	if cfg.Output.Path != stdoutPath {
		fmt.Fprintf(out, "Encoded %d of %d packets into %d flows (%d columns) -> %s\n",
			stats.Encoded, stats.Received, stats.Flows, len(opts.Columns), cfg.Output.Path)
	}
	return nil
}

func writeSchemaFile(path string, columns []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create schema %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	for _, c := range columns {
		w.WriteString(c)
		w.WriteByte('\n')
	}
	return errors.Join(w.Flush(), f.Close())
}
