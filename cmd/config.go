package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/tierlens-cli/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set TierLens configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "preview_rows: %d\n", cfg.PreviewRows)
		fmt.Fprintf(w, "delimiter: %q\n", cfg.Delimiter)
		fmt.Fprintf(w, "encoding: %s\n", cfg.Encoding)
		fmt.Fprintf(w, "missing_label: %s\n", cfg.MissingLabel)
		fmt.Fprintf(w, "strict_numbers: %t\n", cfg.StrictNumbers)
		fmt.Fprintf(w, "numeric_fallback: %g\n", cfg.NumericFallback)
		if cfg.RulesFile != "" {
			fmt.Fprintf(w, "rules_file: %s\n", cfg.RulesFile)
		}
		fmt.Fprintf(w, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(w, "max_upload_mb: %d\n", cfg.MaxUploadMB)
		fmt.Fprintf(w, "request_timeout_sec: %d\n", cfg.RequestTimeoutSec)
		fmt.Fprintf(w, "batch_workers: %d\n", cfg.BatchWorkers)
		fmt.Fprintf(w, "log_level: %s\n", cfg.LogLevel)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "preview_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for preview_rows: %v", val)
			}
			cfg.PreviewRows = i
		case "delimiter":
			if _, err := cfgpkg.ParseDelimiter(val); err != nil {
				return err
			}
			cfg.Delimiter = val
		case "encoding":
			switch strings.ToLower(val) {
			case "utf-8", "utf8", "gbk", "gb18030":
				cfg.Encoding = strings.ToLower(val)
			default:
				return fmt.Errorf("invalid encoding: %s (use utf-8, gbk or gb18030)", val)
			}
		case "missing_label":
			cfg.MissingLabel = val
		case "strict_numbers":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid bool for strict_numbers: %w", err)
			}
			cfg.StrictNumbers = b
		case "numeric_fallback":
			f, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return fmt.Errorf("invalid float for numeric_fallback: %w", err)
			}
			cfg.NumericFallback = f
		case "rules_file":
			cfg.RulesFile = val
		case "listen_addr":
			cfg.ListenAddr = val
		case "max_upload_mb", "request_timeout_sec", "batch_workers":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for %s: %v", key, val)
			}
			switch key {
			case "max_upload_mb":
				cfg.MaxUploadMB = i
			case "request_timeout_sec":
				cfg.RequestTimeoutSec = i
			default:
				cfg.BatchWorkers = i
			}
		case "log_level":
			switch val {
			case "debug", "info", "warn", "error":
				cfg.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
			}
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
