package reservation

import (
	"context"
	"time"

	"venuebook/internal/domain"
	"venuebook/internal/repository"
)

// Overlaps reports whether half-open intervals [s1,e1) and [s2,e2) intersect.
// Touching intervals do not overlap.
func Overlaps(s1, e1, s2, e2 time.Time) bool {
	return s1.Before(e2) && s2.Before(e1)
}

// ConflictsWith returns the ids of blocking reservations in existing that
// overlap [start, end), skipping excludeID.
func ConflictsWith(existing []domain.Reservation, start, end time.Time, excludeID int64) []int64 {
	var ids []int64
	for i := range existing {
		r := &existing[i]
		if r.ID == excludeID || !r.Blocks() {
			continue
		}
		if Overlaps(r.StartTime, r.EndTime, start, end) {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

func validInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return ErrInvalidInterval
	}
	return nil
}

// checkOverlap must run under the resource lock held by tx so that the
// answer still holds when the write that follows commits.
func checkOverlap(ctx context.Context, tx repository.ReservationTx, resourceID int64, start, end time.Time, excludeID int64) error {
	candidates, err := tx.Overlapping(ctx, resourceID, start, end, excludeID)
	if err != nil {
		return err
	}
	if ids := ConflictsWith(candidates, start, end, excludeID); len(ids) > 0 {
		return &ConflictError{ResourceID: resourceID, Start: start, End: end, Conflicting: ids}
	}
	return nil
}
