package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"venuebook/internal/modules/errclass"
	"venuebook/internal/notification"
	"venuebook/internal/pkg/validator"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	KindPastDate     = "past_date"
	KindNotAttempted = "not_attempted"

	MetaSeriesID    = "series_id"
	MetaSeriesIndex = "series_index"
)

// GenerateOccurrences expands a base date and a daily clock range into count
// intervals. Clock times are read in loc. Monthly steps keep the base day as
// the anchor and clamp to the month's last day (Jan 31, Feb 28, Mar 31).
func GenerateOccurrences(base time.Time, startClock, endClock string, loc *time.Location, rule RecurrenceRule, count int) ([]Occurrence, error) {
	if count < 1 {
		return nil, errclass.Validationf("occurrence count must be at least 1")
	}
	if loc == nil {
		loc = time.UTC
	}
	sh, sm, err := parseClock(startClock)
	if err != nil {
		return nil, err
	}
	eh, em, err := parseClock(endClock)
	if err != nil {
		return nil, err
	}
	if eh*60+em <= sh*60+sm {
		return nil, ErrInvalidInterval
	}

	y, m, d := base.Date()
	out := make([]Occurrence, 0, count)
	for i := 0; i < count; i++ {
		var day time.Time
		switch rule {
		case RuleWeekly:
			day = time.Date(y, m, d+7*i, 0, 0, 0, 0, loc)
		case RuleMonthly:
			day = addMonthsClamped(y, m, d, i, loc)
		default:
			return nil, errclass.Validationf("unknown recurrence rule %q", rule)
		}

		dy, dm, dd := day.Date()
		out = append(out, Occurrence{
			Index: i,
			Date:  day.Format(dateLayout),
			Start: time.Date(dy, dm, dd, sh, sm, 0, 0, loc).UTC(),
			End:   time.Date(dy, dm, dd, eh, em, 0, 0, loc).UTC(),
		})
	}
	return out, nil
}

func addMonthsClamped(y int, m time.Month, d, n int, loc *time.Location) time.Time {
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, loc)
	if last := daysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, 0, 0, 0, 0, loc)
}

func daysIn(y int, m time.Month) int {
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func parseClock(s string) (int, int, error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil {
		return 0, 0, errclass.Validationf("invalid time of day %q, want HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}

// CreateRecurring books every occurrence independently: a conflict or
// past date fails that occurrence only. There is no batch rollback. After
// an auth or permission failure the remaining occurrences are reported as
// not attempted, since the session can no longer write.
func (s *Service) CreateRecurring(ctx context.Context, actor Actor, req RecurringRequest) (*SeriesReport, error) {
	if fields := validator.Validate(req); fields != nil {
		return nil, fmt.Errorf("%w: %v", errclass.ErrValidation, fields)
	}
	if req.Count > s.maxOccurrences {
		return nil, errclass.Validationf("count must be at most %d", s.maxOccurrences)
	}

	tz := req.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, errclass.Validationf("unknown time zone %q", tz)
	}
	base, err := time.ParseInLocation(dateLayout, req.BaseDate, loc)
	if err != nil {
		return nil, errclass.Validationf("invalid base date %q", req.BaseDate)
	}

	occurrences, err := GenerateOccurrences(base, req.StartTime, req.EndTime, loc, req.Rule, req.Count)
	if err != nil {
		return nil, err
	}

	template, err := buildDraft(actor, CreateRequest{
		ResourceID:     req.ResourceID,
		ProfessionalID: req.ProfessionalID,
		CustomerName:   req.CustomerName,
		CustomerID:     req.CustomerID,
		Status:         req.Status,
		Kind:           req.Kind,
	})
	if err != nil {
		return nil, err
	}

	report := &SeriesReport{
		SeriesID: uuid.NewString(),
		Results:  make([]OccurrenceResult, 0, len(occurrences)),
	}
	now := s.now()
	var abort error

	for _, o := range occurrences {
		r := OccurrenceResult{Occurrence: o}
		if abort == nil && ctx.Err() != nil {
			abort = ctx.Err()
		}

		switch {
		case abort != nil:
			r.Kind = KindNotAttempted
			r.Error = abort.Error()
		case o.Start.Before(now):
			r.Kind = KindPastDate
			r.Error = ErrStartInPast.Error()
		default:
			draft := template
			draft.StartTime, draft.EndTime = o.Start, o.End
			draft.Metadata = seriesMetadata(req.Metadata, report.SeriesID, o.Index)

			created, err := s.reserve(ctx, actor.TenantID, draft)
			if err != nil {
				cat := errclass.Classify(err)
				r.Kind = string(cat)
				r.Error = err.Error()
				if cat == errclass.CategoryAuth || cat == errclass.CategoryPermission {
					abort = err
				}
				break
			}

			id := created.ID
			r.Success = true
			r.ReservationID = &id
			one := &Result{Reservation: created, Changed: true}
			s.afterCommit(ctx, one, createSyncAction(created), notification.KindReservationCreated)
			report.Warnings = append(report.Warnings, one.Warnings...)
		}

		if r.Success {
			report.SuccessCount++
		} else {
			report.FailCount++
			report.FailedDates = append(report.FailedDates, o.Date)
		}
		report.Results = append(report.Results, r)
	}

	switch {
	case report.SuccessCount == 0:
		report.Outcome = OutcomeSeriesNone
	case report.FailCount > 0:
		report.Outcome = OutcomeSeriesPartial
	default:
		report.Outcome = OutcomeSeriesCreated
	}
	return report, nil
}

func seriesMetadata(base map[string]any, seriesID string, index int) map[string]any {
	out := make(map[string]any, len(base)+2)
	for k, v := range base {
		out[k] = v
	}
	out[MetaSeriesID] = seriesID
	out[MetaSeriesIndex] = index
	return out
}
