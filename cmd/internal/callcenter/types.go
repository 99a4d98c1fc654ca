package callcenter

import (
	"time"
)

// Outcome is the result recorded for one call.
type Outcome string

const (
	OutcomeInterested    Outcome = "interested"
	OutcomeNotInterested Outcome = "not_interested"
	OutcomeCallback      Outcome = "callback"
	OutcomeNoAnswer      Outcome = "no_answer"
	OutcomeConverted     Outcome = "converted"
)

// Outcomes lists every accepted outcome in display order.
var Outcomes = []Outcome{
	OutcomeInterested,
	OutcomeNotInterested,
	OutcomeCallback,
	OutcomeNoAnswer,
	OutcomeConverted,
}

func (o Outcome) Valid() bool {
	for _, v := range Outcomes {
		if o == v {
			return true
		}
	}
	return false
}

// NeedsFollowUp reports whether a call with this outcome must schedule a follow-up.
func (o Outcome) NeedsFollowUp() bool {
	return o == OutcomeCallback || o == OutcomeInterested
}

// GymStatus is the pipeline stage of a gym.
type GymStatus string

const (
	GymNew           GymStatus = "new"
	GymContacted     GymStatus = "contacted"
	GymFollowUp      GymStatus = "follow_up"
	GymConverted     GymStatus = "converted"
	GymNotInterested GymStatus = "not_interested"
)

func (s GymStatus) Valid() bool {
	switch s {
	case GymNew, GymContacted, GymFollowUp, GymConverted, GymNotInterested:
		return true
	}
	return false
}

// FollowUpStatus filters follow-ups.
type FollowUpStatus string

const (
	FollowUpPending FollowUpStatus = "pending"
	FollowUpDone    FollowUpStatus = "done"
)

type Gym struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	City           string     `json:"city,omitempty"`
	Area           string     `json:"area,omitempty"`
	Phone          string     `json:"phone,omitempty"`
	Status         GymStatus  `json:"status"`
	TelecallerID   string     `json:"telecaller_id,omitempty"`
	TelecallerName string     `json:"telecaller_name,omitempty"`
	LastCalledAt   *time.Time `json:"last_called_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type Telecaller struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Mobile       string    `json:"mobile"`
	Active       bool      `json:"is_active"`
	AssignedGyms int       `json:"assigned_gyms"`
	CreatedAt    time.Time `json:"created_at"`
}

// Call is one logged call. FollowUpDate is a YYYY-MM-DD calendar date.
type Call struct {
	ID             string    `json:"id"`
	GymID          string    `json:"gym_id"`
	GymName        string    `json:"gym_name,omitempty"`
	TelecallerID   string    `json:"telecaller_id"`
	TelecallerName string    `json:"telecaller_name,omitempty"`
	Outcome        Outcome   `json:"outcome"`
	Remarks        string    `json:"remarks,omitempty"`
	FollowUpDate   string    `json:"follow_up_date,omitempty"`
	CalledAt       time.Time `json:"called_at"`
}

type FollowUp struct {
	ID           string         `json:"id"`
	CallID       string         `json:"call_id"`
	GymID        string         `json:"gym_id"`
	GymName      string         `json:"gym_name,omitempty"`
	TelecallerID string         `json:"telecaller_id"`
	Date         string         `json:"date"`
	Status       FollowUpStatus `json:"status"`
	Remarks      string         `json:"remarks,omitempty"`
}

// DashboardStats is the aggregate view for the signed-in role. Manager-only
// fields stay zero for telecallers.
type DashboardStats struct {
	TotalGyms     int             `json:"total_gyms"`
	AssignedGyms  int             `json:"assigned_gyms"`
	TotalCalls    int             `json:"total_calls"`
	CallsToday    int             `json:"calls_today"`
	FollowUpsDue  int             `json:"follow_ups_due"`
	Conversions   int             `json:"conversions"`
	Telecallers   int             `json:"telecallers,omitempty"`
	ActiveCallers int             `json:"active_telecallers,omitempty"`
	OutcomeCounts map[Outcome]int `json:"outcome_counts,omitempty"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// HasMore reports whether a later page exists.
func (p Page[T]) HasMore() bool {
	if p.Limit <= 0 {
		return false
	}
	return p.Page*p.Limit < p.Total
}
