package celltools

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// AggFunc reduces the samples that landed in one cell, in raster scan order.
type AggFunc func(...float64) float64

type AggPolicy string

const (
	PolicyLast     AggPolicy = "last"
	PolicyFirst    AggPolicy = "first"
	PolicyMean     AggPolicy = "mean"
	PolicyMajority AggPolicy = "majority"
	PolicySum      AggPolicy = "sum"
	PolicyMin      AggPolicy = "min"
	PolicyMax      AggPolicy = "max"
)

var aggFuncs = map[AggPolicy]AggFunc{
	PolicyLast:     Last,
	PolicyFirst:    First,
	PolicyMean:     Mean,
	PolicyMajority: Majority,
	PolicySum:      Sum,
	PolicyMin:      Min,
	PolicyMax:      Max,
}

func ParseAggPolicy(s string) (AggPolicy, error) {
	p := AggPolicy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PolicyLast, nil
	}
	if _, ok := aggFuncs[p]; !ok {
		return "", errors.Errorf("aggregation function %q not recognized, choose from: last, first, mean, majority, sum, min, max", s)
	}
	return p, nil
}

func (p AggPolicy) Func() AggFunc {
	if f, ok := aggFuncs[p]; ok {
		return f
	}
	return Last
}

// Last keeps the value painted last in scan order.
func Last(inData ...float64) float64 {
	return inData[len(inData)-1]
}

func First(inData ...float64) float64 {
	return inData[0]
}

func Mean(inData ...float64) float64 {
	return Sum(inData...) / float64(len(inData))
}

func Sum(inData ...float64) (total float64) {
	for _, v := range inData {
		total += v
	}
	return total
}

func Max(inData ...float64) float64 {
	return extreme(inData, func(a, b float64) bool { return a > b })
}

func Min(inData ...float64) float64 {
	return extreme(inData, func(a, b float64) bool { return a < b })
}

// extreme returns the first sample no other sample beats.
func extreme(inData []float64, beats func(a, b float64) bool) float64 {
	best := inData[0]
	for _, v := range inData[1:] {
		if beats(v, best) {
			best = v
		}
	}
	return best
}

// Majority returns the most frequent value; ties go to the smallest value.
func Majority(inData ...float64) float64 {
	counts := make(map[float64]int, len(inData))
	for _, val := range inData {
		counts[val]++
	}
	values := make([]float64, 0, len(counts))
	for val := range counts {
		values = append(values, val)
	}
	sort.Float64s(values)
	best := values[0]
	for _, val := range values[1:] {
		if counts[val] > counts[best] {
			best = val
		}
	}
	return best
}
