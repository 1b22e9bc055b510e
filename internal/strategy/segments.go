package strategy

import (
	"strings"

	"hotRankBacktest/internal/ports"
)

// PrefixSegment returns a classifier that puts codes matching any of the
// given prefixes into the higher-volatility threshold tier. The prefix list
// is a configuration concern; the evaluators carry no board knowledge.
func PrefixSegment(prefixes []string) ports.SegmentFn {
	return func(code string) bool {
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(code, p) {
				return true
			}
		}
		return false
	}
}
