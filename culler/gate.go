package culler

import "imageculler/types"

// gateCheck is one fixed minimum-score requirement.
type gateCheck struct {
	category  string
	threshold float64
	value     func(types.ScoreVector) float64
}

// gateChecks are evaluated in priority order: the first failing category
// is the reported reason, though an image failing any of them is culled.
var gateChecks = []gateCheck{
	{"Overall", 2.50, func(s types.ScoreVector) float64 { return s.Overall }},
	{"Quality", 2.50, func(s types.ScoreVector) float64 { return s.Quality }},
	{"Composition", 2.75, func(s types.ScoreVector) float64 { return s.Composition }},
	{"Lighting", 2.50, func(s types.ScoreVector) float64 { return s.Lighting }},
	{"Depth of Field", 2.50, func(s types.ScoreVector) float64 { return s.DepthOfField }},
	{"Content", 2.60, func(s types.ScoreVector) float64 { return s.Content }},
}

// FailsQualityGate reports whether a score vector falls below any fixed
// minimum threshold, and if so, which category to report. The gate is
// idempotent: an image that passes once passes always.
func FailsQualityGate(scores types.ScoreVector) (string, bool) {
	for _, check := range gateChecks {
		if check.value(scores) < check.threshold {
			return check.category, true
		}
	}
	return "", false
}
