package types

import (
	"fmt"
	"strconv"
)

const (
	HyperparamObjective  = "objective"
	HyperparamNumRound   = "num_round"
	HyperparamMaxDepth   = "max_depth"
	HyperparamEta        = "eta"
	HyperparamGamma      = "gamma"
	HyperparamMinChildW  = "min_child_weight"
	HyperparamSubsample  = "subsample"
	HyperparamEvalMetric = "eval_metric"
	HyperparamNumClass   = "num_class"
)

// GBTObjectives lists the objectives a gradient-boosted-tree algorithm
// accepts, keyed by objective with a short description.
var GBTObjectives = map[string]string{
	"reg:squarederror":    "regression with squared loss",
	"reg:squaredlogerror": "regression with squared log loss",
	"reg:logistic":        "logistic regression",
	"reg:linear":          "linear regression (legacy alias of reg:squarederror)",
	"reg:gamma":           "gamma regression with log-link",
	"reg:tweedie":         "tweedie regression with log-link",
	"binary:logistic":     "binary classification, output probability",
	"binary:logitraw":     "binary classification, output score before logistic transformation",
	"binary:hinge":        "binary classification with hinge loss",
	"multi:softmax":       "multiclass classification using the softmax objective, requires num_class",
	"multi:softprob":      "same as softmax, but outputs per-class probabilities",
	"rank:pairwise":       "pairwise ranking",
	"rank:ndcg":           "list-wise ranking maximizing NDCG",
	"rank:map":            "list-wise ranking maximizing MAP",
}

// ValidateHyperparameters checks the gradient-boosting keys this platform
// understands. Unknown keys pass through untouched, the external algorithm
// owns their semantics.
func ValidateHyperparameters(params map[string]string) error {
	if v, ok := params[HyperparamObjective]; ok {
		if _, known := GBTObjectives[v]; !known {
			return fmt.Errorf("unknown objective: %s", v)
		}
	}
	for _, key := range []string{HyperparamNumRound, HyperparamMaxDepth, HyperparamNumClass} {
		v, ok := params[key]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: not an integer: %s", key, v)
		}
		if n <= 0 {
			return fmt.Errorf("%s: must be positive: %d", key, n)
		}
	}
	for _, key := range []string{HyperparamEta, HyperparamSubsample} {
		v, ok := params[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: not a number: %s", key, v)
		}
		if f <= 0 || f > 1 {
			return fmt.Errorf("%s: must be in (0,1]: %s", key, v)
		}
	}
	for _, key := range []string{HyperparamGamma, HyperparamMinChildW} {
		v, ok := params[key]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: not a number: %s", key, v)
		}
		if f < 0 {
			return fmt.Errorf("%s: must not be negative: %s", key, v)
		}
	}
	if params[HyperparamObjective] == "multi:softmax" || params[HyperparamObjective] == "multi:softprob" {
		if _, ok := params[HyperparamNumClass]; !ok {
			return fmt.Errorf("%s requires %s", params[HyperparamObjective], HyperparamNumClass)
		}
	}
	return nil
}
