package services

import (
	"sort"
	"strings"
	"time"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	apperrors "github.com/polizadesk/ticketboard/internal/core/errors"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

// TicketQueryEngine produces the filtered and grouped ticket views. A single
// location is used for both date filtering and day grouping so the solved
// view can never filter a ticket into one day and group it into another.
type TicketQueryEngine struct {
	policy ports.AccessPolicy
	loc    *time.Location
}

var _ ports.TicketQueryEngine = (*TicketQueryEngine)(nil)

// NewTicketQueryEngine creates a query engine using loc for calendar-day
// calculations. A nil loc falls back to the host's local zone.
func NewTicketQueryEngine(policy ports.AccessPolicy, loc *time.Location) *TicketQueryEngine {
	if loc == nil {
		loc = time.Local
	}
	return &TicketQueryEngine{policy: policy, loc: loc}
}

// VisibleTickets narrows the snapshot to what the user may list, preserving
// the store's newest-created-first ordering.
func (e *TicketQueryEngine) VisibleTickets(user *domain.User, all []*domain.Ticket) []*domain.Ticket {
	if user.IsAdmin() {
		return all
	}

	visible := make([]*domain.Ticket, 0, len(all))
	for _, t := range all {
		if e.policy.CanList(user, t) {
			visible = append(visible, t)
		}
	}
	return visible
}

// BoardBuckets partitions tickets into the four fixed status columns, keeping
// each bucket in the incoming order. All four keys are always present. A
// status outside the known four indicates corrupt data and is surfaced as an
// error rather than silently dropped.
func (e *TicketQueryEngine) BoardBuckets(tickets []*domain.Ticket) (map[domain.TicketStatus][]*domain.Ticket, error) {
	buckets := make(map[domain.TicketStatus][]*domain.Ticket, len(domain.Statuses))
	for _, s := range domain.Statuses {
		buckets[s] = []*domain.Ticket{}
	}

	for _, t := range tickets {
		if !domain.IsValidStatus(t.Status) {
			return nil, apperrors.ErrInvalidStatus
		}
		buckets[t.Status] = append(buckets[t.Status], t)
	}
	return buckets, nil
}

// FilterSolved returns the solved tickets matching the policy-number search
// and the date predicate, evaluated relative to now. Input order is kept.
func (e *TicketQueryEngine) FilterSolved(tickets []*domain.Ticket, filter ports.SolvedFilter, now time.Time) []*domain.Ticket {
	search := strings.ToLower(filter.PolicySearch)

	matched := make([]*domain.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status != domain.StatusSolved {
			continue
		}
		if !strings.Contains(strings.ToLower(t.PolicyNumber), search) {
			continue
		}
		if !e.matchesDate(t.CreatedAt, filter, now) {
			continue
		}
		matched = append(matched, t)
	}
	return matched
}

// matchesDate applies the selected date predicate in the engine's location.
func (e *TicketQueryEngine) matchesDate(createdAt time.Time, filter ports.SolvedFilter, now time.Time) bool {
	switch filter.DateFilter {
	case ports.DateFilterToday:
		return e.dayKey(createdAt) == e.dayKey(now)

	case ports.DateFilterWeek:
		// Continuous seven days back, inclusive boundary. Not aligned to
		// calendar weeks.
		return !createdAt.Before(now.AddDate(0, 0, -7))

	case ports.DateFilterMonth:
		// Calendar month subtraction. AddDate normalizes overflow, so e.g.
		// March 31 minus one month becomes March 3 rather than an error.
		return !createdAt.Before(now.AddDate(0, -1, 0))

	case ports.DateFilterCustom:
		start, end := filter.CustomRange.Start, filter.CustomRange.End
		if start == nil || end == nil {
			// A half-open custom range is a no-op pass-through.
			return true
		}
		endOfDay := e.endOfDay(*end)
		return !createdAt.Before(*start) && !createdAt.After(endOfDay)

	default:
		return true
	}
}

// GroupByDay buckets tickets by the calendar date of creation, most recent
// day first, preserving the relative input order inside each day.
func (e *TicketQueryEngine) GroupByDay(tickets []*domain.Ticket) []ports.DayGroup {
	byDay := make(map[string][]*domain.Ticket)
	keys := make([]string, 0)

	for _, t := range tickets {
		key := e.dayKey(t.CreatedAt)
		if _, seen := byDay[key]; !seen {
			keys = append(keys, key)
		}
		byDay[key] = append(byDay[key], t)
	}

	// ISO date keys sort lexicographically in chronological order.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	groups := make([]ports.DayGroup, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, ports.DayGroup{Day: key, Tickets: byDay[key]})
	}
	return groups
}

// CountByStatus tallies tickets per status for the dashboard header.
func (e *TicketQueryEngine) CountByStatus(tickets []*domain.Ticket) map[domain.TicketStatus]int {
	counts := make(map[domain.TicketStatus]int, len(domain.Statuses))
	for _, s := range domain.Statuses {
		counts[s] = 0
	}
	for _, t := range tickets {
		counts[t.Status]++
	}
	return counts
}

func (e *TicketQueryEngine) dayKey(t time.Time) string {
	return t.In(e.loc).Format("2006-01-02")
}

func (e *TicketQueryEngine) endOfDay(t time.Time) time.Time {
	local := t.In(e.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 0, e.loc)
}
