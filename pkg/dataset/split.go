package dataset

import (
	"fmt"
	"math/rand"
)

type SplitFractions struct {
	Train      float64
	Validation float64
	Test       float64
}

func DefaultSplitFractions() SplitFractions {
	return SplitFractions{Train: 0.7, Validation: 0.2, Test: 0.1}
}

func (f SplitFractions) Validate() error {
	if f.Train <= 0 {
		return fmt.Errorf("train fraction must be positive")
	}
	if f.Validation < 0 || f.Test < 0 {
		return fmt.Errorf("fractions must not be negative")
	}
	const epsilon = 1e-9
	if sum := f.Train + f.Validation + f.Test; sum > 1+epsilon {
		return fmt.Errorf("fractions sum to %v, must not exceed 1", sum)
	}
	return nil
}

// Split shuffles rows with the given seed and partitions them into train,
// validation and test tables. Partitions are disjoint and exhaustive when the
// fractions sum to 1; the same seed always yields the same partitions.
func (t *Table) Split(fractions SplitFractions, seed int64) (train, validation, test *Table, err error) {
	if err := fractions.Validate(); err != nil {
		return nil, nil, nil, err
	}
	n := len(t.Rows)
	shuffled := make([][]string, n)
	copy(shuffled, t.Rows)
	rand.New(rand.NewSource(seed)).Shuffle(n, func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTrain := int(fractions.Train * float64(n))
	nValidation := int(fractions.Validation * float64(n))
	if nTrain+nValidation > n {
		nValidation = n - nTrain
	}

	sub := func(rows [][]string) *Table {
		return &Table{Columns: t.Columns, Rows: rows}
	}
	train = sub(shuffled[:nTrain])
	validation = sub(shuffled[nTrain : nTrain+nValidation])
	test = sub(shuffled[nTrain+nValidation:])
	return train, validation, test, nil
}
