package culler

import (
	"sort"

	"imageculler/types"
)

// TrimToTarget sorts the surviving images ascending by weighted score and
// drops the lowest-scoring excess so that at most cullTo remain. The kept
// list stays in ascending order (worst-of-the-kept first); the numbered
// export relies on that ordering, so it must not be reversed. The dropped
// names come back in the same ascending order.
func TrimToTarget(scores map[string]types.ScoreVector, names []string, cullTo int) (kept, dropped []string) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.SliceStable(sorted, func(i, j int) bool {
		return scores[sorted[i]].Weighted() < scores[sorted[j]].Weighted()
	})

	excess := len(sorted) - cullTo
	if excess < 0 {
		excess = 0
	}

	return sorted[excess:], sorted[:excess]
}
