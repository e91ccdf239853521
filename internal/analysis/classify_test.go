package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/datastory-cli/internal/dataset"
)

func tableOf(cols ...dataset.Column) *dataset.Table {
	t := &dataset.Table{Name: "t.csv", Columns: cols}
	if len(cols) > 0 {
		t.Rows = len(cols[0].Values)
	}
	return t
}

func TestClassify_PartitionsInTableOrder(t *testing.T) {
	tbl := tableOf(
		dataset.Column{Name: "Region", Values: []string{"north", "south", "east"}},
		dataset.Column{Name: "Visits", Values: []string{"1", "", "3"}},
		dataset.Column{Name: "Empty", Values: []string{"", "", ""}},
		dataset.Column{Name: "Mixed", Values: []string{"1", "two", "3"}},
		dataset.Column{Name: "Share", Values: []string{"10%", "20%", "30%"}},
	)
	c := Classify(tbl, dataset.NumberFormat{})
	if got := strings.Join(c.NumericNames(), ","); got != "Visits,Share" {
		t.Fatalf("numeric = %q", got)
	}
	if got := strings.Join(c.NonNumeric, ","); got != "Region,Empty,Mixed" {
		t.Fatalf("non-numeric = %q", got)
	}
	if !math.IsNaN(c.Numeric[0].Values[1]) {
		t.Fatalf("missing cell should coerce to NaN, got %v", c.Numeric[0].Values[1])
	}
	if k, ok := c.KindOf("Mixed"); !ok || k != KindCategorical {
		t.Fatalf("KindOf(Mixed) = %v, %v", k, ok)
	}
}

func TestCoerce_ReportsFirstBadCell(t *testing.T) {
	res := Coerce(dataset.Column{Name: "x", Values: []string{"1", "oops", "zzz"}}, dataset.NumberFormat{})
	if res.OK {
		t.Fatalf("expected coercion failure")
	}
	if res.FirstBad != "oops" {
		t.Fatalf("FirstBad = %q", res.FirstBad)
	}
}

func TestCoerce_AllMissingIsNotNumeric(t *testing.T) {
	res := Coerce(dataset.Column{Name: "x", Values: []string{"", ""}}, dataset.NumberFormat{})
	if res.OK || res.NonMissing != 0 {
		t.Fatalf("all-missing column must not be numeric: %+v", res)
	}
}

func TestClassify_USGroupedNumbersStayWhole(t *testing.T) {
	tbl := tableOf(
		dataset.Column{Name: "Revenue", Values: []string{"1,234", "12,500", "980"}},
		dataset.Column{Name: "Population", Values: []string{"1,234,567", "2,500", "NA"}},
		dataset.Column{Name: "Ratio", Values: []string{"0,5", "1,25", "2"}},
	)
	c := Classify(tbl, dataset.NumberFormat{})
	if got := strings.Join(c.NumericNames(), ","); got != "Revenue,Population,Ratio" {
		t.Fatalf("numeric = %q, non-numeric = %q", got, c.NonNumeric)
	}
	want := [][]float64{{1234, 12500, 980}, {1234567, 2500}, {0.5, 1.25, 2}}
	for i, col := range c.Numeric {
		for j, w := range want[i] {
			if col.Values[j] != w {
				t.Fatalf("%s[%d] = %v, want %v", col.Name, j, col.Values[j], w)
			}
		}
	}
	if !math.IsNaN(c.Numeric[1].Values[2]) {
		t.Fatalf("NA should coerce to NaN")
	}
}
