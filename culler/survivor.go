package culler

import "imageculler/types"

// SelectSurvivors returns the names to discard so that each duplicate
// group keeps exactly its best member. Each group is scanned in member
// order with a running maximum: an image strictly better than the best
// seen so far becomes the new survivor and the previous best is discarded;
// anything else is discarded immediately. Ties therefore keep the earliest
// member.
//
// The running maximum starts as "no candidate yet" rather than zero, so a
// group whose members all score non-positive still keeps its true maximum.
// Singleton groups contribute nothing.
func SelectSurvivors(scores map[string]types.ScoreVector, groups []types.DuplicateGroup) []string {
	var discards []string

	for _, group := range groups {
		var maxScore float64
		bestImage := ""
		haveBest := false

		for _, image := range group.Members {
			weighted := scores[image].Weighted()

			if !haveBest || weighted > maxScore {
				if haveBest {
					discards = append(discards, bestImage)
				}
				maxScore = weighted
				bestImage = image
				haveBest = true
			} else {
				discards = append(discards, image)
			}
		}
	}

	return discards
}
