// Package parser maps upload filenames to table formats and loads them.
package parser

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

// Parser recognises one table format by filename.
type Parser interface {
	CanParse(filename string) bool
	Format() table.Format
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
}

// ErrUnsupported indicates a file extension no parser accepts.
var ErrUnsupported = errors.New("unsupported file format")

// FormatFor returns the table format for filename, matched case-insensitively
// by extension.
func FormatFor(filename string) (table.Format, error) {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p.Format(), nil
		}
	}
	return "", fmt.Errorf("%w: %q (accepted: .csv, .xlsx)", ErrUnsupported, filepath.Base(filename))
}

// Load decodes data according to filename's extension. The table is named
// after the base filename.
func Load(filename string, data []byte, opt table.LoadOptions) (*table.Table, error) {
	f, err := FormatFor(filename)
	if err != nil {
		return nil, err
	}
	t, err := table.Load(data, f, opt)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(filename)
	return t, nil
}

// ParseFile reads path from disk and loads it.
func ParseFile(path string, opt table.LoadOptions) (*table.Table, error) {
	if _, err := FormatFor(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return Load(path, data, opt)
}
