package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func loadDelimited(data []byte, opt LoadOptions) (*Table, error) {
	text, err := decodeText(data, opt.Encoding)
	if err != nil {
		return nil, err
	}
	text = bytes.TrimPrefix(text, utf8BOM)
	if len(bytes.TrimSpace(text)) == 0 {
		return nil, parseErr(FormatDelimited, "empty file", nil)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.Comma = opt.Delimiter
	if r.Comma == 0 {
		r.Comma = ','
	}

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, parseErr(FormatDelimited, "no header row", nil)
		}
		return nil, parseErr(FormatDelimited, "read header", err)
	}
	var records [][]string
	for {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, parseErr(FormatDelimited, "read row", err)
		}
		records = append(records, rec)
	}
	t, err := New("", header, records)
	if err != nil {
		return nil, parseErr(FormatDelimited, "malformed row", err)
	}
	return t, nil
}

// decodeText converts delimited text to UTF-8 and rejects invalid byte sequences.
func decodeText(data []byte, enc string) ([]byte, error) {
	var decoder *encoding.Decoder
	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "utf-8", "utf8":
	case "gbk":
		decoder = simplifiedchinese.GBK.NewDecoder()
	case "gb18030":
		decoder = simplifiedchinese.GB18030.NewDecoder()
	default:
		return nil, parseErr(FormatDelimited, "unsupported encoding "+enc, nil)
	}
	if decoder != nil {
		out, _, err := transform.Bytes(decoder, data)
		if err != nil {
			return nil, parseErr(FormatDelimited, "decode "+enc, err)
		}
		data = out
	}
	if !utf8.Valid(data) {
		return nil, parseErr(FormatDelimited, "unsupported encoding: input is not valid UTF-8", nil)
	}
	return data, nil
}
