package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadFile_HeaderAndMissingCells(t *testing.T) {
	p := writeFile(t, "sales.csv", "\uFEFFRegion,WebsiteVisits,Sales\n"+
		"north,1,2\n"+
		"south,NA,4\n"+
		"east,3\n")
	tbl, err := LoadFile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tbl.Name != "sales.csv" {
		t.Fatalf("name = %q", tbl.Name)
	}
	if tbl.Rows != 3 {
		t.Fatalf("rows = %d, want 3", tbl.Rows)
	}
	if got := strings.Join(tbl.Names(), "|"); got != "Region|WebsiteVisits|Sales" {
		t.Fatalf("names = %q", got)
	}
	for _, c := range tbl.Columns {
		if len(c.Values) != tbl.Rows {
			t.Fatalf("column %s has %d values, want %d", c.Name, len(c.Values), tbl.Rows)
		}
	}
	visits, _ := tbl.Column("WebsiteVisits")
	if visits.Values[1] != "" {
		t.Fatalf("NA should load as missing, got %q", visits.Values[1])
	}
	sales, _ := tbl.Column("Sales")
	if sales.Values[2] != "" {
		t.Fatalf("short row should be padded with missing, got %q", sales.Values[2])
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cases := []struct {
		name    string
		content string
		reason  string
	}{
		{"empty.csv", "", "empty file"},
		{"header_only.csv", "a,b\n", "no data rows"},
		{"wide.csv", "a,b\n1,2,3\n", "row 1 has 3 fields"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := writeFile(t, tc.name, tc.content)
			_, err := LoadFile(p, DefaultOptions())
			var le *LoadError
			if !errors.As(err, &le) {
				t.Fatalf("expected LoadError, got %v", err)
			}
			if !strings.Contains(le.Reason, tc.reason) {
				t.Fatalf("reason = %q, want substring %q", le.Reason, tc.reason)
			}
		})
	}
}

func TestLoadFile_NotFound(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
	var le *LoadError
	if !errors.As(err, &le) || le.Reason != "file not found" {
		t.Fatalf("expected file not found LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("LoadError should unwrap to ErrNotExist")
	}
}

func TestLoadFile_TSVAndDuplicateHeaders(t *testing.T) {
	p := writeFile(t, "d.tsv", "x\tx\t\n1\t2\t3\n")
	tbl, err := LoadFile(p, DefaultOptions())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got := strings.Join(tbl.Names(), "|"); got != "x|x.1|Unnamed: 2" {
		t.Fatalf("names = %q", got)
	}
}

func TestRead_DuplicateHeaderSkipsTakenSuffix(t *testing.T) {
	tbl, err := Read(strings.NewReader("a,a.1,a,a\n1,2,3,4\n"), "dup.csv", ',', DefaultOptions())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got := strings.Join(tbl.Names(), "|"); got != "a|a.1|a.2|a.3" {
		t.Fatalf("names = %q", got)
	}
	if c, ok := tbl.Column("a.2"); !ok || c.Values[0] != "3" {
		t.Fatalf("column a.2 = %+v, %v", c, ok)
	}
}

func TestLoadFile_MaxRowsWarning(t *testing.T) {
	p := writeFile(t, "m.csv", "a\n1\n2\n3\n")
	opt := DefaultOptions()
	opt.MaxRows = 2
	tbl, err := LoadFile(p, opt)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if tbl.Rows != 2 {
		t.Fatalf("rows = %d, want 2", tbl.Rows)
	}
	if len(tbl.Warnings) != 1 || tbl.Warnings[0] != "processed only 2/3 rows due to MaxRows" {
		t.Fatalf("warnings = %#v", tbl.Warnings)
	}
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		nf   NumberFormat
		want float64
		ok   bool
	}{
		{"42", NumberFormat{}, 42, true},
		{"-3.5e2", NumberFormat{}, -350, true},
		{"12.5%", NumberFormat{}, 12.5, true},
		{"1.000,5", NumberFormat{}, 1000.5, true},
		{"1,000.5", NumberFormat{}, 1000.5, true},
		{"0,5", NumberFormat{DecimalSeparator: ','}, 0.5, true},
		{"1,234", NumberFormat{}, 1234, true},
		{"2,500", NumberFormat{}, 2500, true},
		{"1,234,567", NumberFormat{}, 1234567, true},
		{"1,5", NumberFormat{}, 1.5, true},
		{"1,5", NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}, 0, false},
		{"12,34,5", NumberFormat{}, 0, false},
		{"1,234.5,6", NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}, 0, false},
		{"1 000", NumberFormat{ThousandsSeparator: ' '}, 1000, true},
		{"abc", NumberFormat{}, 0, false},
		{"NaN", NumberFormat{}, 0, false},
		{"Inf", NumberFormat{}, 0, false},
		{"", NumberFormat{}, 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseNumber(tc.in, tc.nf)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Fatalf("ParseNumber(%q) = %v, %v; want %v, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestDetectFormat_ChoosesSeparatorsPerColumn(t *testing.T) {
	us := NumberFormat{DecimalSeparator: '.', ThousandsSeparator: ','}
	eu := NumberFormat{DecimalSeparator: ',', ThousandsSeparator: '.'}
	cases := []struct {
		name   string
		values []string
		nf     NumberFormat
		want   NumberFormat
	}{
		{"ambiguous commas read as thousands", []string{"1,234", "12,500", "980"}, NumberFormat{}, us},
		{"decimal comma proven", []string{"1,5", "2,25", ""}, NumberFormat{}, eu},
		{"european grouping", []string{"1.234,5", "980"}, NumberFormat{}, eu},
		{"conflicting evidence keeps dot", []string{"1,5", "1,234,567"}, NumberFormat{}, us},
		{"plain numbers", []string{"1.5", "2"}, NumberFormat{}, us},
		{"explicit decimal wins", []string{"1,234"}, NumberFormat{DecimalSeparator: ','}, NumberFormat{DecimalSeparator: ','}},
		{"explicit thousands dot", []string{"1.234"}, NumberFormat{ThousandsSeparator: '.'}, eu},
		{"space grouping kept", []string{"1 234,5"}, NumberFormat{ThousandsSeparator: ' '}, NumberFormat{DecimalSeparator: ',', ThousandsSeparator: ' '}},
	}
	for _, tc := range cases {
		if got := DetectFormat(tc.values, tc.nf); got != tc.want {
			t.Fatalf("%s: DetectFormat(%q) = %+v, want %+v", tc.name, tc.values, got, tc.want)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	if d, err := ParseDelimiter("tab"); err != nil || d != '\t' {
		t.Fatalf("tab = %q, %v", d, err)
	}
	if _, err := ParseDelimiter("#"); err == nil {
		t.Fatalf("expected error for unsupported delimiter")
	}
}
