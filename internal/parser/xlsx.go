package parser

import (
	"strings"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

type xlsxParser struct{}

func (xlsxParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxParser) Format() table.Format { return table.FormatWorkbook }
