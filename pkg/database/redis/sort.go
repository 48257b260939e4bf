package redis

import (
	"fmt"
	"sort"

	"github.com/redbco/unidb/pkg/adapter"
)

// sortRecords orders records in place by the given keys. Numeric values
// compare numerically, everything else lexically.
func sortRecords(records []adapter.Record, orderBy []adapter.OrderBy) {
	sort.SliceStable(records, func(i, j int) bool {
		for _, ob := range orderBy {
			cmp := compareValues(records[i][ob.Field], records[j][ob.Field])
			if cmp == 0 {
				continue
			}
			if ob.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}

func compareValues(a, b any) int {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	default:
		return 0
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}
