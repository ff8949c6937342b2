package ledger

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

// SortUUIDs orders IDs by their byte representation. Locking code relies on
// this to acquire row locks in one deterministic order everywhere.
func SortUUIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}

// CompareUUIDs returns -1, 0 or 1 ordering two IDs consistently with SortUUIDs
func CompareUUIDs(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
