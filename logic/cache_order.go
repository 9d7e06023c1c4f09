package logic

import (
	"math/big"
	"sort"
	"strings"
)

// CompareCacheKeys orders cache keys for eviction. Keys that parse as integers sort
// below all other keys and compare by value; everything else compares lexically.
//
// This is a heuristic: silo post ids grow roughly monotonically, so the largest keys
// are usually the newest posts. Nothing guarantees that for a given silo.
func CompareCacheKeys(a, b string) int {
	na, aNum := parseCacheKeyInt(a)
	nb, bNum := parseCacheKeyInt(b)
	switch {
	case aNum && bNum:
		return na.Cmp(nb)
	case aNum:
		return -1
	case bNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func parseCacheKeyInt(key string) (*big.Int, bool) {
	if key == "" {
		return nil, false
	}
	return new(big.Int).SetString(strings.TrimSpace(key), 10)
}

// largestCacheKeys returns the n largest keys under CompareCacheKeys, largest first.
func largestCacheKeys(keys []string, n int) []string {
	sorted := append([]string(nil), keys...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return CompareCacheKeys(sorted[i], sorted[j]) > 0
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
