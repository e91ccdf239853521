package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.OutputDir != "reports" || c.SignificanceThreshold != 0.7 || c.OutlierRule != "iqr" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if !c.Charts || c.ChartWidth != 1000 || c.ChartHeight != 800 || c.StampReports {
		t.Fatalf("unexpected chart defaults: %+v", c)
	}
	if *c != *Defaults() {
		t.Fatalf("Load defaults %+v differ from Defaults() %+v", c, Defaults())
	}
}

func TestSaveThenLoad_RoundTripsSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	c := Defaults()
	c.OutputDir = "out"
	c.SignificanceThreshold = 0.5
	c.OutlierRule = "mad"
	c.Charts = false
	c.Delimiter = ";"
	if err := Save(c, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *c {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, c)
	}
}

func TestLoad_PartialFileKeepsOtherDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("chart_width: 640\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.ChartWidth != 640 || c.ChartHeight != 800 || c.OutputDir != "reports" {
		t.Fatalf("unexpected config: %+v", c)
	}
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("charts: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed yaml")
	}
}

func TestPath_DefaultsUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	p, err := Path("")
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if p != filepath.Join(home, ".datastory", "config.yaml") {
		t.Fatalf("Path = %s", p)
	}
}

func TestLoad_RejectsNonFiniteValues(t *testing.T) {
	for _, body := range []string{
		"significance_threshold: .nan\n",
		"significance_threshold: 1.5\n",
		"outlier_multiplier: .inf\n",
		"outlier_rule: dbscan\n",
		"chart_width: 10\n",
	} {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Fatalf("expected Load to reject %q", body)
		}
		c, err := LoadUnchecked(path)
		if err != nil {
			t.Fatalf("LoadUnchecked(%q): %v", body, err)
		}
		if c.Validate() == nil {
			t.Fatalf("Validate should reject %q", body)
		}
	}
}
