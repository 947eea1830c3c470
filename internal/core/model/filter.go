package model

import (
	"math"
	"strconv"
	"strings"
)

// DefaultMinWeight is the weight threshold used when none is requested.
const DefaultMinWeight = 3

// FilterConfig selects the subgraph shown for a case. It is immutable per
// pipeline run; a changed filter always means a full recomputation.
type FilterConfig struct {
	MinWeight float64 `json:"minWeight"`
	EdgeType  string  `json:"edgeType"`
}

// DefaultFilter returns the filter applied on initial case load.
func DefaultFilter() FilterConfig {
	return FilterConfig{MinWeight: DefaultMinWeight}
}

// Normalized returns a copy with an unusable MinWeight (negative or
// non-finite) replaced by 0, which disables weight filtering.
func (f FilterConfig) Normalized() FilterConfig {
	if math.IsNaN(f.MinWeight) || math.IsInf(f.MinWeight, 0) || f.MinWeight < 0 {
		f.MinWeight = 0
	}
	f.EdgeType = strings.TrimSpace(f.EdgeType)
	return f
}

// ParseFilter builds a FilterConfig from presenter-supplied strings.
// An absent minWeight falls back to DefaultMinWeight; a present but
// non-numeric or negative one disables weight filtering.
func ParseFilter(minWeight string, minWeightSet bool, edgeType string) FilterConfig {
	cfg := FilterConfig{MinWeight: DefaultMinWeight, EdgeType: edgeType}
	if minWeightSet {
		v, err := strconv.ParseFloat(strings.TrimSpace(minWeight), 64)
		if err != nil {
			v = 0
		}
		cfg.MinWeight = v
	}
	return cfg.Normalized()
}
