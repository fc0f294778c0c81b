package dataset

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

const sampleCSV = `rings,length,diameter,sex
15,0.455,0.365,M
7,0.35,0.265,F
9,0.53,0.42,F
10,0.44,0.365,M
7,0.33,0.255,I
8,0.425,0.3,F
20,0.545,0.425,M
16,0.475,0.37,F
9,0.55,0.44,M
19,0.525,0.38,F
`

func TestLoad(t *testing.T) {
	table, err := Load(strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	wantColumns := []Column{
		{Name: "rings", Type: ColumnTypeInteger},
		{Name: "length", Type: ColumnTypeFloat},
		{Name: "diameter", Type: ColumnTypeFloat},
		{Name: "sex", Type: ColumnTypeString},
	}
	if !reflect.DeepEqual(table.Columns, wantColumns) {
		t.Errorf("Load() columns = %v, want %v", table.Columns, wantColumns)
	}
	if len(table.Rows) != 10 {
		t.Errorf("Load() rows = %d, want 10", len(table.Rows))
	}
}

func TestLoadNoHeader(t *testing.T) {
	table, err := Load(strings.NewReader("1,2.5\n3,4.5\n"), false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := []string{table.Columns[0].Name, table.Columns[1].Name}; !reflect.DeepEqual(got, []string{"c0", "c1"}) {
		t.Errorf("Load() generated names = %v", got)
	}
	if len(table.Rows) != 2 {
		t.Errorf("Load() rows = %d, want 2", len(table.Rows))
	}
}

func TestSplit(t *testing.T) {
	table, err := Load(strings.NewReader(sampleCSV), true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	train, validation, test, err := table.Split(SplitFractions{Train: 0.7, Validation: 0.2, Test: 0.1}, 42)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(train.Rows) != 7 || len(validation.Rows) != 2 || len(test.Rows) != 1 {
		t.Fatalf("Split() sizes = %d/%d/%d, want 7/2/1", len(train.Rows), len(validation.Rows), len(test.Rows))
	}

	// disjoint and exhaustive
	seen := map[string]int{}
	for _, part := range []*Table{train, validation, test} {
		for _, row := range part.Rows {
			seen[strings.Join(row, ",")]++
		}
	}
	if len(seen) != len(table.Rows) {
		t.Errorf("Split() covered %d distinct rows, want %d", len(seen), len(table.Rows))
	}
	for row, count := range seen {
		if count != 1 {
			t.Errorf("Split() row %q appears %d times", row, count)
		}
	}

	// same seed, same partitions
	train2, _, _, err := table.Split(SplitFractions{Train: 0.7, Validation: 0.2, Test: 0.1}, 42)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if !reflect.DeepEqual(train.Rows, train2.Rows) {
		t.Errorf("Split() not deterministic for identical seed")
	}
}

func TestSplitFractionsValidate(t *testing.T) {
	tests := []struct {
		name      string
		fractions SplitFractions
		wantErr   bool
	}{
		{name: "default", fractions: DefaultSplitFractions()},
		{name: "zero train", fractions: SplitFractions{Train: 0, Validation: 0.5, Test: 0.5}, wantErr: true},
		{name: "negative", fractions: SplitFractions{Train: 0.8, Validation: -0.1, Test: 0.3}, wantErr: true},
		{name: "over one", fractions: SplitFractions{Train: 0.8, Validation: 0.3, Test: 0.1}, wantErr: true},
		{name: "train only", fractions: SplitFractions{Train: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.fractions.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMoveColumnFirst(t *testing.T) {
	table, err := Load(strings.NewReader("a,b,label\n1,2,3\n4,5,6\n"), true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := table.MoveColumnFirst("label"); err != nil {
		t.Fatalf("MoveColumnFirst() error = %v", err)
	}
	wantNames := []string{"label", "a", "b"}
	for i, want := range wantNames {
		if table.Columns[i].Name != want {
			t.Errorf("column %d = %s, want %s", i, table.Columns[i].Name, want)
		}
	}
	wantRows := [][]string{{"3", "1", "2"}, {"6", "4", "5"}}
	if !reflect.DeepEqual(table.Rows, wantRows) {
		t.Errorf("MoveColumnFirst() rows = %v, want %v", table.Rows, wantRows)
	}
	if err := table.MoveColumnFirst("missing"); err == nil {
		t.Errorf("MoveColumnFirst() expected error for missing column")
	}
}

func TestWrite(t *testing.T) {
	table := &Table{
		Columns: []Column{{Name: "x"}, {Name: "y"}},
		Rows:    [][]string{{"1", "2"}, {"3", "4"}},
	}
	buf := &bytes.Buffer{}
	if err := table.Write(buf, true); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got, want := buf.String(), "x,y\n1,2\n3,4\n"; got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}
	buf.Reset()
	if err := table.Write(buf, false); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got, want := buf.String(), "1,2\n3,4\n"; got != want {
		t.Errorf("Write() = %q, want %q", got, want)
	}
}

func TestSummary(t *testing.T) {
	table, err := Load(strings.NewReader("v,s\n1,a\n2,b\n3,c\n"), true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	summaries := table.Summary()
	if len(summaries) != 2 {
		t.Fatalf("Summary() returned %d columns", len(summaries))
	}
	v := summaries[0]
	if v.Count != 3 || v.Mean != 2 || v.Min != 1 || v.Max != 3 {
		t.Errorf("Summary() numeric = %+v", v)
	}
	s := summaries[1]
	if s.Count != 3 || s.Type != ColumnTypeString {
		t.Errorf("Summary() string = %+v", s)
	}
}
