package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrDecode is wrapped by every error returned from Parse. It means the
// tokenizer rejected the text (for example malformed quoting) and no records
// were produced.
var ErrDecode = errors.New("decode sheet")

// DefaultSentinel is the header label expected in the sentinel column.
const DefaultSentinel = "Zip"

// DefaultSentinelColumn is the zero-based cell index checked for the sentinel.
const DefaultSentinelColumn = 1

// SyntheticKeyPrefix names columns that have no usable header cell.
const SyntheticKeyPrefix = "column_"

// Record maps a column name to its trimmed cell value.
type Record map[string]string

// Options controls header discovery and record cleanup.
type Options struct {
	Sentinel       string
	SentinelColumn int
	// ReservedKeys are deleted from every record after construction.
	ReservedKeys []string
	// Delimiters are the candidates for DetectDelimiter. The first entry is
	// the fallback.
	Delimiters []rune
}

// DefaultOptions returns the options used by Normalize.
func DefaultOptions() Options {
	return Options{
		Sentinel:       DefaultSentinel,
		SentinelColumn: DefaultSentinelColumn,
		ReservedKeys:   []string{"Country", SyntheticKeyPrefix + "0"},
		Delimiters:     []rune{',', ';'},
	}
}

// Result is the outcome of Parse.
type Result struct {
	Delimiter rune
	// HeaderFound is false when no row carried the sentinel. Records is empty
	// in that case.
	HeaderFound bool
	Header      []string
	Records     []Record
	// Skipped counts non-blank rows discarded before the header.
	Skipped int
}

// Normalize parses raw with DefaultOptions and returns the records. The slice
// is never nil.
func Normalize(raw string) ([]Record, error) {
	res, err := Parse(raw, DefaultOptions())
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Parse sniffs the layout of raw and converts every row after the header row
// into a Record.
func Parse(raw string, opts Options) (Result, error) {
	text := strings.TrimLeft(raw, bom)
	delim := DetectDelimiter(text, opts.Delimiters...)

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1

	res := Result{Delimiter: delim, Records: []Record{}}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrDecode, err)
		}

		if isBlank(row) {
			continue
		}

		if !res.HeaderFound {
			if isHeader(row, opts) {
				res.Header = row
				res.HeaderFound = true
			} else {
				res.Skipped++
			}
			continue
		}

		res.Records = append(res.Records, buildRecord(res.Header, row))
	}

	for _, rec := range res.Records {
		for _, key := range opts.ReservedKeys {
			delete(rec, key)
		}
	}

	return res, nil
}

const bom = "\uFEFF"

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isHeader(row []string, opts Options) bool {
	if opts.SentinelColumn < 0 || len(row) <= opts.SentinelColumn {
		return false
	}
	return strings.TrimSpace(row[opts.SentinelColumn]) == opts.Sentinel
}

// buildRecord keys cells by position. The data row drives iteration, so a
// short row simply has fewer keys and overflow cells get synthetic names.
func buildRecord(header, row []string) Record {
	rec := make(Record, len(row))
	for i, cell := range row {
		rec[ColumnKey(header, i)] = strings.TrimSpace(cell)
	}
	return rec
}

// ColumnKey returns the trimmed header cell at index i, or column_<i> when the
// header is too short or the cell is blank.
func ColumnKey(header []string, i int) string {
	if i < len(header) {
		if name := strings.TrimSpace(header[i]); name != "" {
			return name
		}
	}
	return SyntheticKeyPrefix + strconv.Itoa(i)
}
