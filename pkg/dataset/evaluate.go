package dataset

import (
	"fmt"
	"math"
	"strconv"
)

// RegressionReport compares numeric predictions against actual values.
type RegressionReport struct {
	Count int
	MSE   float64
	RMSE  float64
	MAE   float64
}

// ClassificationReport compares discrete predictions against actual labels.
type ClassificationReport struct {
	Count    int
	Correct  int
	Accuracy float64
}

func EvaluateRegression(predictions, actuals []string) (*RegressionReport, error) {
	if len(predictions) != len(actuals) {
		return nil, fmt.Errorf("got %d predictions for %d actual values", len(predictions), len(actuals))
	}
	if len(predictions) == 0 {
		return nil, fmt.Errorf("nothing to evaluate")
	}
	var sumsq, sumabs float64
	for i := range predictions {
		p, err := strconv.ParseFloat(predictions[i], 64)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i, err)
		}
		a, err := strconv.ParseFloat(actuals[i], 64)
		if err != nil {
			return nil, fmt.Errorf("actual %d: %w", i, err)
		}
		diff := p - a
		sumsq += diff * diff
		sumabs += math.Abs(diff)
	}
	n := float64(len(predictions))
	mse := sumsq / n
	return &RegressionReport{
		Count: len(predictions),
		MSE:   mse,
		RMSE:  math.Sqrt(mse),
		MAE:   sumabs / n,
	}, nil
}

func EvaluateClassification(predictions, actuals []string) (*ClassificationReport, error) {
	if len(predictions) != len(actuals) {
		return nil, fmt.Errorf("got %d predictions for %d actual labels", len(predictions), len(actuals))
	}
	if len(predictions) == 0 {
		return nil, fmt.Errorf("nothing to evaluate")
	}
	correct := 0
	for i := range predictions {
		if predictions[i] == actuals[i] {
			correct++
		}
	}
	return &ClassificationReport{
		Count:    len(predictions),
		Correct:  correct,
		Accuracy: float64(correct) / float64(len(predictions)),
	}, nil
}

// Column returns the values of the named column.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %s not found", name)
	}
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		values = append(values, row[idx])
	}
	return values, nil
}
