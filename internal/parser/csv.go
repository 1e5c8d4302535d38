package parser

import (
	"strings"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

type csvParser struct{}

func (csvParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".csv")
}

func (csvParser) Format() table.Format { return table.FormatDelimited }
