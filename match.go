package footprints

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// In-memory criteria evaluation shared by stores that filter after loading
// records (DocumentStore) and by populate resolution.

// matchesWhere reports whether a record satisfies every equality filter.
// A nil/empty filter matches everything.
func matchesWhere(rec Record, where map[string]interface{}) bool {
	for attr, want := range where {
		if !equalValues(rec[attr], want) {
			return false
		}
	}
	return true
}

// equalValues compares attribute values loosely across numeric types.
// Records round-tripped through JSON carry float64 where the caller may
// hold int, so numeric values compare by magnitude. Slices and maps from
// JSON documents are not comparable with ==, so composite values compare
// structurally.
func equalValues(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !reflect.TypeOf(a).Comparable() || !reflect.TypeOf(b).Comparable() {
		if reflect.DeepEqual(a, b) {
			return true
		}
	} else if a == b {
		return true
	}

	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}

	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// sortRecords orders records by a sort directive of the form
// "attribute" or "attribute desc". An empty directive is a no-op.
func sortRecords(recs []Record, directive string) {
	if directive == "" {
		return
	}

	fields := strings.Fields(directive)
	attr := fields[0]
	desc := len(fields) > 1 && strings.EqualFold(fields[1], "desc")

	sort.SliceStable(recs, func(i, j int) bool {
		less := lessValues(recs[i][attr], recs[j][attr])
		if desc {
			return !less && !equalValues(recs[i][attr], recs[j][attr])
		}
		return less
	})
}

func lessValues(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprintf("%v", a) < fmt.Sprintf("%v", b)
}

// applyWindow applies skip/limit to an already-sorted result set
func applyWindow(recs []Record, skip, limit int) []Record {
	if skip > 0 {
		if skip >= len(recs) {
			return nil
		}
		recs = recs[skip:]
	}
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	return recs
}

// evaluateCriteria filters, sorts and windows records against structured
// criteria. Scalar criteria must be normalized before calling.
func evaluateCriteria(recs []Record, c Criteria) []Record {
	var out []Record
	for _, rec := range recs {
		if matchesWhere(rec, c.Where) {
			out = append(out, rec)
		}
	}
	sortRecords(out, c.Sort)
	return applyWindow(out, c.Skip, c.Limit)
}
