package features

import (
	"github.com/corona10/goimagehash"
)

// DifferenceHash computes a 64-bit perceptual hash of the image file.
// Byte-identical and near-identical renditions hash the same, which lets
// the embedding grouper skip their pairwise comparison. Hashing failures
// degrade gracefully: the caller just compares embeddings instead.
func DifferenceHash(path string) (uint64, bool) {
	img, err := decodeGoImage(path)
	if err != nil {
		return 0, false
	}

	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return 0, false
	}

	return hash.GetHash(), true
}
