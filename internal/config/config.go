// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"firestige.xyz/nprint/internal/core"
)

// GlobalConfig represents the top-level configuration.
// Maps to the `nprint:` root key in YAML.
type GlobalConfig struct {
	Input      string        `mapstructure:"input"`
	Protocols  []string      `mapstructure:"protocols"`
	Stack      core.Stack    `mapstructure:"-"` // parsed from Protocols
	GroupBy    string        `mapstructure:"group_by"`    // flow | none
	MaxPackets int           `mapstructure:"max_packets"` // per flow, 0 = unlimited
	Anonymize  bool          `mapstructure:"anonymize"`
	Output     OutputConfig  `mapstructure:"output"`
	SchemaPath string        `mapstructure:"schema_path"` // empty = no schema file
	Log        LogConfig     `mapstructure:"log"`
	Metrics    MetricsConfig `mapstructure:"metrics"`
}

// ─── Output ───

// OutputConfig selects where and how encoded rows are written.
type OutputConfig struct {
	Path        string `mapstructure:"path"`
	Format      string `mapstructure:"format"`      // npy | csv
	Compression string `mapstructure:"compression"` // none | gzip | zstd | lz4
}

// ─── Metrics ───

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"` // node_exporter textfile; empty = disabled
}

// ─── Log ───

// LogConfig contains logging settings.
type LogConfig struct {
	Level      string           `mapstructure:"level"`       // debug / info / warn / error
	Format     string           `mapstructure:"format"`      // json / text / pattern
	Pattern    string           `mapstructure:"pattern"`     // used by the pattern format
	TimeFormat string           `mapstructure:"time_format"` // used by the pattern format
	Outputs    LogOutputsConfig `mapstructure:"outputs"`
}

// LogOutputsConfig contains log output destinations besides stderr.
type LogOutputsConfig struct {
	File FileOutputConfig `mapstructure:"file"`
}

// FileOutputConfig configures file log output.
type FileOutputConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Path     string         `mapstructure:"path"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	MaxBackups int  `mapstructure:"max_backups"`
	Compress   bool `mapstructure:"compress"`
}

// ─── Loading ───

// Root is the YAML root key; every viper key carries it as prefix.
const Root = "nprint"

// Key returns the full viper key of a GlobalConfig field path such as "output.path".
func Key(path string) string {
	return Root + "." + path
}

type configRoot struct {
	Nprint GlobalConfig `mapstructure:"nprint"`
}

// NewViper returns a viper instance with defaults and environment overrides.
// Keys map to env vars through the root prefix, e.g. "nprint.output.path" → NPRINT_OUTPUT_PATH.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// ReadFile merges the YAML file at path into v.
func ReadFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load loads configuration from file. An empty path yields defaults plus
// environment overrides.
func Load(path string) (*GlobalConfig, error) {
	v := NewViper()
	if path != "" {
		if err := ReadFile(v, path); err != nil {
			return nil, err
		}
	}
	return Decode(v)
}

// Decode unmarshals v, then validates and applies defaults.
func Decode(v *viper.Viper) (*GlobalConfig, error) {
	var root configRoot
	// "ipv4,tcp" from env or flags decodes the same as a YAML list.
	hook := viper.DecodeHook(mapstructure.StringToSliceHookFunc(","))
	if err := v.Unmarshal(&root, hook); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Nprint

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default values for configuration.
// All keys use the "nprint." prefix to match the YAML root wrapper.
func setDefaults(v *viper.Viper) {
	v.SetDefault(Key("input"), "")
	v.SetDefault(Key("protocols"), []string{"ipv4", "tcp", "udp"})
	v.SetDefault(Key("group_by"), "flow")
	v.SetDefault(Key("max_packets"), 0)
	v.SetDefault(Key("anonymize"), false)
	v.SetDefault(Key("schema_path"), "")

	// Output defaults
	v.SetDefault(Key("output.path"), "")
	v.SetDefault(Key("output.format"), "npy")
	v.SetDefault(Key("output.compression"), "none")

	// Log defaults
	v.SetDefault(Key("log.level"), "info")
	v.SetDefault(Key("log.format"), "text")
	v.SetDefault(Key("log.pattern"), "%time [%level] %caller: %msg%n")
	v.SetDefault(Key("log.time_format"), "2006-01-02 15:04:05")
	v.SetDefault(Key("log.outputs.file.enabled"), false)
	v.SetDefault(Key("log.outputs.file.path"), "/var/log/nprint/nprint.log")
	v.SetDefault(Key("log.outputs.file.rotation.max_size_mb"), 100)
	v.SetDefault(Key("log.outputs.file.rotation.max_age_days"), 30)
	v.SetDefault(Key("log.outputs.file.rotation.max_backups"), 5)
	v.SetDefault(Key("log.outputs.file.rotation.compress"), true)

	// Metrics defaults
	v.SetDefault(Key("metrics.textfile"), "")
}

// ValidateAndApplyDefaults validates configuration and applies runtime defaults.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	// ── Log validation ──
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("%w: log level %q (must be debug/info/warn/error)", core.ErrConfigInvalid, cfg.Log.Level)
	}
	switch cfg.Log.Format {
	case "json", "text", "pattern":
	default:
		return fmt.Errorf("%w: log format %q (must be json/text/pattern)", core.ErrConfigInvalid, cfg.Log.Format)
	}
	if cfg.Log.Outputs.File.Enabled && cfg.Log.Outputs.File.Path == "" {
		return fmt.Errorf("%w: log.outputs.file.path is required when file output is enabled", core.ErrConfigInvalid)
	}

	// ── Encoding ──
	stack, err := core.ParseStackNames(cfg.Protocols)
	if err != nil {
		return fmt.Errorf("protocols: %w", err)
	}
	if err := stack.Validate(); err != nil {
		return fmt.Errorf("protocols: %w", err)
	}
	cfg.Stack = stack
	cfg.GroupBy = strings.ToLower(cfg.GroupBy)
	if cfg.GroupBy != "flow" && cfg.GroupBy != "none" {
		return fmt.Errorf("%w: group_by %q (must be flow/none)", core.ErrConfigInvalid, cfg.GroupBy)
	}
	if cfg.MaxPackets < 0 {
		return fmt.Errorf("%w: max_packets must not be negative, got %d", core.ErrConfigInvalid, cfg.MaxPackets)
	}

	// ── Output ──
	cfg.Output.Format = strings.ToLower(cfg.Output.Format)
	if cfg.Output.Format != "npy" && cfg.Output.Format != "csv" {
		return fmt.Errorf("%w: output.format %q (must be npy/csv)", core.ErrUnsupportedFormat, cfg.Output.Format)
	}
	cfg.Output.Compression = strings.ToLower(cfg.Output.Compression)
	if cfg.Output.Compression == "" {
		cfg.Output.Compression = "none"
	}
	switch cfg.Output.Compression {
	case "none", "gzip", "zstd", "lz4":
	default:
		return fmt.Errorf("%w: output.compression %q (must be none/gzip/zstd/lz4)", core.ErrUnsupportedFormat, cfg.Output.Compression)
	}

	return nil
}
