package callcenter

import (
	"fmt"
	"net/url"
	"strconv"

	"telecall/cmd/internal/calendar"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ClampLimit maps a requested page size into [1, MaxLimit]; zero or negative
// means DefaultLimit.
func ClampLimit(n int) int {
	switch {
	case n <= 0:
		return DefaultLimit
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}

func setPage(v url.Values, page, limit int) {
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	v.Set("limit", strconv.Itoa(ClampLimit(limit)))
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

// GymQuery filters the gym list.
type GymQuery struct {
	Search       string
	Status       GymStatus
	City         string
	TelecallerID string
	// Unassigned restricts the list to gyms without a telecaller (manager only).
	Unassigned bool
	Page       int
	Limit      int
}

func (q GymQuery) Values() (url.Values, error) {
	v := url.Values{}
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalid("callcenter.GymQuery", fmt.Sprintf("unknown status %q", q.Status))
	}
	if q.Unassigned && q.TelecallerID != "" {
		return nil, invalid("callcenter.GymQuery", "unassigned and telecaller filters are exclusive")
	}
	setIf(v, "search", normalizeSearch(q.Search))
	setIf(v, "status", string(q.Status))
	setIf(v, "city", normalizeSearch(q.City))
	setIf(v, "telecaller_id", q.TelecallerID)
	if q.Unassigned {
		v.Set("unassigned", "true")
	}
	setPage(v, q.Page, q.Limit)
	return v, nil
}

// ListQuery filters the telecaller list. Active nil means all.
type ListQuery struct {
	Search string
	Active *bool
	Page   int
	Limit  int
}

func (q ListQuery) Values() url.Values {
	v := url.Values{}
	setIf(v, "search", normalizeSearch(q.Search))
	if q.Active != nil {
		v.Set("is_active", strconv.FormatBool(*q.Active))
	}
	setPage(v, q.Page, q.Limit)
	return v
}

// CallQuery filters the call log. From and To are inclusive YYYY-MM-DD dates.
type CallQuery struct {
	From         string
	To           string
	Outcome      Outcome
	TelecallerID string
	GymID        string
	Page         int
	Limit        int
}

func (q CallQuery) Values() (url.Values, error) {
	const op = "callcenter.CallQuery"
	v := url.Values{}

	var from, to calendar.Date
	var err error
	if q.From != "" {
		if from, err = calendar.Parse(q.From); err != nil {
			return nil, invalid(op, fmt.Sprintf("from: %v", err))
		}
		v.Set("from", from.String())
	}
	if q.To != "" {
		if to, err = calendar.Parse(q.To); err != nil {
			return nil, invalid(op, fmt.Sprintf("to: %v", err))
		}
		v.Set("to", to.String())
	}
	if q.From != "" && q.To != "" && to.Before(from) {
		return nil, invalid(op, "to is before from")
	}
	if q.Outcome != "" && !q.Outcome.Valid() {
		return nil, invalid(op, fmt.Sprintf("unknown outcome %q", q.Outcome))
	}
	setIf(v, "outcome", string(q.Outcome))
	setIf(v, "telecaller_id", q.TelecallerID)
	setIf(v, "gym_id", q.GymID)
	setPage(v, q.Page, q.Limit)
	return v, nil
}

// FollowUpQuery filters follow-ups by due date and status.
type FollowUpQuery struct {
	Date   string
	Status FollowUpStatus
	Page   int
	Limit  int
}

func (q FollowUpQuery) Values() (url.Values, error) {
	const op = "callcenter.FollowUpQuery"
	v := url.Values{}
	if q.Date != "" {
		d, err := calendar.Parse(q.Date)
		if err != nil {
			return nil, invalid(op, err.Error())
		}
		v.Set("date", d.String())
	}
	switch q.Status {
	case "", FollowUpPending, FollowUpDone:
	default:
		return nil, invalid(op, fmt.Sprintf("unknown status %q", q.Status))
	}
	setIf(v, "status", string(q.Status))
	setPage(v, q.Page, q.Limit)
	return v, nil
}
