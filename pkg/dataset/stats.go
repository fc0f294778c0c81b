package dataset

import (
	"math"
	"strconv"
)

type ColumnSummary struct {
	Name  string
	Type  ColumnType
	Count int
	Mean  float64
	Min   float64
	Max   float64
}

// Summary computes count/mean/min/max for numeric columns. String columns
// report count only.
func (t *Table) Summary() []ColumnSummary {
	summaries := make([]ColumnSummary, len(t.Columns))
	for i, col := range t.Columns {
		s := ColumnSummary{Name: col.Name, Type: col.Type}
		if col.Type == ColumnTypeString {
			s.Count = len(t.Rows)
			summaries[i] = s
			continue
		}
		sum := 0.0
		s.Min = math.Inf(1)
		s.Max = math.Inf(-1)
		for _, row := range t.Rows {
			if i >= len(row) {
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				continue
			}
			s.Count++
			sum += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
		if s.Count > 0 {
			s.Mean = sum / float64(s.Count)
		} else {
			s.Min, s.Max = 0, 0
		}
		summaries[i] = s
	}
	return summaries
}
