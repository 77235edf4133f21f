package shared

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Snapshot value helpers normalize field values so that two snapshots taken
// from the same row compare equal regardless of pointer identity.

// SnapshotDecimal renders a decimal in canonical form
func SnapshotDecimal(d decimal.Decimal) string {
	return d.String()
}

// SnapshotTime renders a time in RFC3339 UTC, or nil for the zero time
func SnapshotTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// SnapshotTimePtr renders an optional time
func SnapshotTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return SnapshotTime(*t)
}

// SnapshotUUIDPtr renders an optional identifier
func SnapshotUUIDPtr(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func snapshotValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Diff compares two snapshots and returns the old and new values of every
// field whose encoded value differs, plus the sorted list of changed fields.
// A nil before snapshot means insert, a nil after snapshot means delete;
// null fields are left out of both.
func Diff(before, after AuditSnapshot) (oldValues, newValues AuditSnapshot, changed []string) {
	oldValues = AuditSnapshot{}
	newValues = AuditSnapshot{}

	switch {
	case before == nil && after == nil:
		return oldValues, newValues, nil
	case before == nil:
		for k, v := range after {
			if v == nil {
				continue
			}
			newValues[k] = v
			changed = append(changed, k)
		}
	case after == nil:
		for k, v := range before {
			if v == nil {
				continue
			}
			oldValues[k] = v
			changed = append(changed, k)
		}
	default:
		for k, nv := range after {
			ov, existed := before[k]
			if existed && snapshotValueEqual(ov, nv) {
				continue
			}
			if existed {
				oldValues[k] = ov
			}
			newValues[k] = nv
			changed = append(changed, k)
		}
		for k, ov := range before {
			if _, ok := after[k]; !ok {
				oldValues[k] = ov
				changed = append(changed, k)
			}
		}
	}
	sort.Strings(changed)
	return oldValues, newValues, changed
}
