package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/tierlens-cli/internal/analysis"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PreviewRows != 10 || c.Delimiter != "," || c.Encoding != "utf-8" || c.MissingLabel != "未知" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.ListenAddr != ":8080" || c.MaxUploadMB != 32 || c.BatchWorkers != 4 || c.StrictNumbers {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(p, []byte("preview_rows: 3\nstrict_numbers: true\nbatch_workers: 2\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TIERLENS_BATCH_WORKERS", "7")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.PreviewRows != 3 || !c.StrictNumbers {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.BatchWorkers != 7 {
		t.Fatalf("env should win, got %d", c.BatchWorkers)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	in := &Global{PreviewRows: 5, Delimiter: ";", Encoding: "gbk", MissingLabel: "N/A", NumericFallback: -1, ListenAddr: ":9000", MaxUploadMB: 8, BatchWorkers: 2, LogLevel: "debug"}
	if err := Save(in, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	out, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *out != *in {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}
}

func TestOptionsConversion(t *testing.T) {
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	content := "rules:\n  - name: region\n    kind: exact\n    column: 区域\n"
	if err := os.WriteFile(rules, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	c := &Global{PreviewRows: 4, Delimiter: "tab", Encoding: "gb18030", StrictNumbers: true, NumericFallback: 1, RulesFile: rules}
	lo, err := c.LoadOptions()
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}
	if lo.Delimiter != '\t' || lo.Encoding != "gb18030" {
		t.Fatalf("load options = %+v", lo)
	}
	ao, err := c.AnalysisOptions()
	if err != nil {
		t.Fatalf("AnalysisOptions: %v", err)
	}
	if ao.PreviewRows != 4 || ao.MissingLabel != analysis.DefaultMissingLabel || !ao.Policy.Strict || ao.Policy.Fallback != 1 {
		t.Fatalf("analysis options = %+v", ao)
	}
	if len(ao.Rules.Rules) != 1 || ao.Rules.Rules[0].Column != "区域" {
		t.Fatalf("rules = %+v", ao.Rules)
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantErr bool
	}{
		{"", ',', false},
		{"tab", '\t', false},
		{";", ';', false},
		{"pipe", '|', false},
		{"#", '#', false},
		{"\"", 0, true},
		{"ab", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseDelimiter(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDelimiter(%q) = %q, %v", tt.in, got, err)
		}
	}
}
