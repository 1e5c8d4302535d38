package config

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

// Global configuration structure.
type Global struct {
	// Analysis
	PreviewRows     int     `mapstructure:"preview_rows" yaml:"preview_rows"`
	Delimiter       string  `mapstructure:"delimiter" yaml:"delimiter"`
	Encoding        string  `mapstructure:"encoding" yaml:"encoding"`
	MissingLabel    string  `mapstructure:"missing_label" yaml:"missing_label"`
	StrictNumbers   bool    `mapstructure:"strict_numbers" yaml:"strict_numbers"`
	NumericFallback float64 `mapstructure:"numeric_fallback" yaml:"numeric_fallback"`
	RulesFile       string  `mapstructure:"rules_file" yaml:"rules_file"`

	// HTTP server
	ListenAddr        string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB       int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	RequestTimeoutSec int    `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`

	BatchWorkers int    `mapstructure:"batch_workers" yaml:"batch_workers"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
}

// Dir returns ~/.tierlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".tierlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.tierlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TIERLENS")
	v.AutomaticEnv()

	v.SetDefault("preview_rows", analysis.DefaultPreviewRows)
	v.SetDefault("delimiter", ",")
	v.SetDefault("encoding", "utf-8")
	v.SetDefault("missing_label", analysis.DefaultMissingLabel)
	v.SetDefault("strict_numbers", false)
	v.SetDefault("numeric_fallback", 0.0)
	v.SetDefault("rules_file", "")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_mb", 32)
	v.SetDefault("request_timeout_sec", 60)
	v.SetDefault("batch_workers", 4)
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// LoadOptions converts the file-decoding settings.
func (c *Global) LoadOptions() (table.LoadOptions, error) {
	d, err := ParseDelimiter(c.Delimiter)
	if err != nil {
		return table.LoadOptions{}, err
	}
	return table.LoadOptions{Delimiter: d, Encoding: c.Encoding}, nil
}

// AnalysisOptions converts the analysis settings, reading rules_file when set.
func (c *Global) AnalysisOptions() (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if c.PreviewRows > 0 {
		opt.PreviewRows = c.PreviewRows
	}
	if c.MissingLabel != "" {
		opt.MissingLabel = c.MissingLabel
	}
	opt.Policy = analysis.Policy{Fallback: c.NumericFallback, Strict: c.StrictNumbers}
	if c.RulesFile != "" {
		rs, err := analysis.LoadRules(c.RulesFile)
		if err != nil {
			return opt, err
		}
		opt.Rules = rs
	}
	return opt, nil
}

// ParseDelimiter accepts a single character or the names "tab", "comma",
// "semicolon" and "pipe". Empty means comma.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", ",", "comma":
		return ',', nil
	case "\t", "\\t", "tab":
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		if r != '"' && r != '\r' && r != '\n' {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unsupported delimiter: %q", s)
}
