// Package codec converts user records to and from single delimited text lines.
//
// Two codecs exist. Legacy reproduces the format written by the old browser
// pages: fields joined by commas with no escaping, so a value that contains a
// comma shifts every later field on read-back. CSV is the canonical format:
// RFC 4180 quoting, byte-identical to Legacy for plain values. It round-trips
// commas, quotes and bare LF, but a CR LF pair inside a quoted value reads
// back as LF. Callers that need exact values must reject CR.
package codec

import (
	"errors"
	"strings"

	"github.com/spec-kit/donor-registry/internal/domain"
)

// ErrFieldCount is returned when a line does not hold exactly one value per column.
var ErrFieldCount = errors.New("wrong number of fields")

// Codec encodes one record per line.
type Codec interface {
	// Header returns the column header line, newline terminated.
	Header() string
	// Encode returns the record as one newline-terminated line.
	Encode(rec domain.UserRecord) string
	// Decode parses a single line with or without its trailing newline.
	Decode(line string) (domain.UserRecord, error)
	// Split returns the record lines of a blob, without the header.
	Split(blob string) ([]string, error)
}

// Header is the literal first line of every record blob.
var Header = strings.Join(domain.ColumnNames, ",") + "\n"

// Legacy is the unescaped comma-joined format.
type Legacy struct{}

func (Legacy) Header() string { return Header }

// Encode joins the fields with commas. Embedded commas and newlines are
// written as-is.
func (Legacy) Encode(rec domain.UserRecord) string {
	return strings.Join(rec.Fields(), ",") + "\n"
}

// Decode splits positionally on commas. It never fails: a value that held a
// comma at encode time yields a misaligned record.
func (Legacy) Decode(line string) (domain.UserRecord, error) {
	line = strings.TrimRight(line, "\r\n")
	return domain.RecordFromFields(strings.Split(line, ",")), nil
}

// Split drops the first line unconditionally, then every empty line.
func (Legacy) Split(blob string) ([]string, error) {
	lines := strings.Split(blob, "\n")
	if len(lines) == 0 {
		return nil, nil
	}
	var out []string
	for _, line := range lines[1:] {
		if strings.TrimRight(line, "\r") == "" {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}
