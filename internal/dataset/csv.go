package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Options controls how a delimited file is read.
type Options struct {
	// Delimiter for CSV. If 0, picked from the file extension (',' or '\t').
	Delimiter rune
	// MaxRows limits data rows kept; 0 means unlimited.
	MaxRows int
	Number  NumberFormat
}

// DefaultOptions returns the loader defaults.
func DefaultOptions() Options {
	return Options{MaxRows: 0}
}

// LoadFile reads a delimited file whose first row is the header.
// All failures are reported as *LoadError.
func LoadFile(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &LoadError{Path: path, Reason: "file not found", Err: err}
		}
		return nil, &LoadError{Path: path, Reason: "open", Err: err}
	}
	defer f.Close()

	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	return Read(f, filepath.Base(path), delim, opt)
}

// Read parses delimited content from r. name is used for the table name and
// in error messages.
func Read(r io.Reader, name string, delim rune, opt Options) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Path: name, Reason: "empty file"}
		}
		return nil, &LoadError{Path: name, Reason: "read header", Err: err}
	}
	if len(header) == 0 {
		return nil, &LoadError{Path: name, Reason: "missing header"}
	}
	names := headerNames(header)
	ncol := len(names)

	t := &Table{Name: name, Columns: make([]Column, ncol)}
	for i, n := range names {
		t.Columns[i] = Column{Name: n}
	}
	maxRows := opt.MaxRows
	if maxRows <= 0 {
		maxRows = math.MaxInt
	}
	seen := 0
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, &LoadError{Path: name, Reason: fmt.Sprintf("read row %d", seen+1), Err: err}
		}
		seen++
		if len(rec) > ncol {
			return nil, &LoadError{Path: name, Reason: fmt.Sprintf("row %d has %d fields, header has %d", seen, len(rec), ncol)}
		}
		if t.Rows >= maxRows {
			continue
		}
		for j := 0; j < ncol; j++ {
			v := ""
			if j < len(rec) {
				v = strings.TrimSpace(rec[j])
			}
			if IsMissing(v) {
				v = ""
			}
			t.Columns[j].Values = append(t.Columns[j].Values, v)
		}
		t.Rows++
	}
	if t.Rows == 0 {
		return nil, &LoadError{Path: name, Reason: "no data rows"}
	}
	if t.Rows < seen {
		t.Warnings = append(t.Warnings, fmt.Sprintf("processed only %d/%d rows due to MaxRows", t.Rows, seen))
	}
	return t, nil
}

// headerNames trims names, strips a UTF-8 BOM, fills blanks and suffixes duplicates.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := map[string]int{}
	for i, h := range header {
		n := strings.TrimSpace(h)
		if i == 0 {
			n = strings.TrimPrefix(n, "\uFEFF")
		}
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		if k, dup := used[n]; dup {
			base := n
			for {
				k++
				n = fmt.Sprintf("%s.%d", base, k)
				if _, taken := used[n]; !taken {
					break
				}
			}
			used[base] = k
		}
		used[n] = 0
		out[i] = n
	}
	return out
}

func sniffDelimiter(path string) rune {
	name := strings.ToLower(path)
	if strings.HasSuffix(name, ".tsv") {
		return '\t'
	}
	return ','
}

// ParseDelimiter maps a user-facing delimiter name to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	default:
		return 0, fmt.Errorf("unsupported delimiter: %s", s)
	}
}
