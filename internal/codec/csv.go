package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spec-kit/donor-registry/internal/domain"
)

// CSV is the escaped record format.
type CSV struct{}

func (CSV) Header() string { return Header }

// Encode quotes values containing commas, quotes, newlines or leading spaces.
func (CSV) Encode(rec domain.UserRecord) string {
	return writeLine(rec.Fields())
}

// Decode reads exactly one CSV record.
func (CSV) Decode(line string) (domain.UserRecord, error) {
	r := csv.NewReader(strings.NewReader(line))
	r.FieldsPerRecord = len(domain.ColumnNames)
	fields, err := r.Read()
	if err != nil {
		if errors.Is(err, csv.ErrFieldCount) {
			return domain.UserRecord{}, fmt.Errorf("%w: %v", ErrFieldCount, err)
		}
		return domain.UserRecord{}, fmt.Errorf("decode record: %w", err)
	}
	return domain.RecordFromFields(fields), nil
}

// Split breaks a blob into record lines. A quoted value may span physical
// lines, so each record is re-emitted as one logical line. The header row
// and blank lines are dropped.
func (CSV) Split(blob string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(blob))
	r.FieldsPerRecord = -1
	var out []string
	for i := 0; ; i++ {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("split records: %w", err)
		}
		if i == 0 && isHeader(fields) {
			continue
		}
		out = append(out, writeLine(fields))
	}
	return out, nil
}

func isHeader(fields []string) bool {
	if len(fields) != len(domain.ColumnNames) {
		return false
	}
	for i, name := range domain.ColumnNames {
		if fields[i] != name {
			return false
		}
	}
	return true
}

func writeLine(fields []string) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	// strings.Builder never fails a write
	_ = w.Write(fields)
	w.Flush()
	return sb.String()
}
