package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// CohortHash identifies the exact cohort a family of tests was run against.
type CohortHash Hash

func (h CohortHash) String() string { return Hash(h).String() }

// ComputeCohortHash derives a stable hash from the filter fields and the set
// of cell types tested together. Two analysis runs share a hash only when
// they test the same family of hypotheses on the same cohort slice.
func ComputeCohortHash(filterKey string, cellTypes []CellType) CohortHash {
	names := make([]string, 0, len(cellTypes))
	for _, ct := range cellTypes {
		names = append(names, ct.String())
	}
	sort.Strings(names)
	payload := fmt.Sprintf("%s|%s", filterKey, strings.Join(names, ","))
	return CohortHash(NewHash([]byte(payload)))
}
