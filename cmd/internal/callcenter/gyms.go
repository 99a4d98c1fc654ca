package callcenter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/session"
)

// MaxAssignBatch bounds how many gyms one assign call carries.
const MaxAssignBatch = 500

// ListGyms lists gyms visible to the signed-in role. Telecallers only see
// their own assignments, so the telecaller filter is ignored for them.
func (s *Service) ListGyms(ctx context.Context, q GymQuery) (Page[Gym], error) {
	const op = "callcenter.ListGyms"
	id, err := s.identity(ctx, op)
	if err != nil {
		return Page[Gym]{}, err
	}
	if id.Role == session.RoleTelecaller {
		q.TelecallerID = ""
		q.Unassigned = false
	}
	v, err := q.Values()
	if err != nil {
		return Page[Gym]{}, err
	}

	var out Page[Gym]
	if err := s.api.DoJSON(ctx, apiclient.Get(rolePath(id.Role, "gyms"), v), &out); err != nil {
		return Page[Gym]{}, classify(op, err)
	}
	return out, nil
}

type assignRequest struct {
	TelecallerID string   `json:"telecaller_id,omitempty"`
	GymIDs       []string `json:"gym_ids"`
}

// AssignResult reports how many gyms the backend changed.
type AssignResult struct {
	Updated int `json:"updated"`
}

// AssignGyms hands gymIDs to a telecaller. Manager only.
func (s *Service) AssignGyms(ctx context.Context, telecallerID string, gymIDs []string) (AssignResult, error) {
	const op = "callcenter.AssignGyms"
	if strings.TrimSpace(telecallerID) == "" {
		return AssignResult{}, invalid(op, "telecaller id is required")
	}
	return s.assign(ctx, op, "gyms/assign", telecallerID, gymIDs)
}

// UnassignGyms returns gymIDs to the unassigned pool. Manager only.
func (s *Service) UnassignGyms(ctx context.Context, gymIDs []string) (AssignResult, error) {
	return s.assign(ctx, "callcenter.UnassignGyms", "gyms/unassign", "", gymIDs)
}

func (s *Service) assign(ctx context.Context, op, rest, telecallerID string, gymIDs []string) (AssignResult, error) {
	ids := dedupe(gymIDs)
	if len(ids) == 0 {
		return AssignResult{}, invalid(op, "at least one gym id is required")
	}
	if _, err := s.requireRole(ctx, op, session.RoleManager); err != nil {
		return AssignResult{}, err
	}

	var total AssignResult
	for start := 0; start < len(ids); start += MaxAssignBatch {
		end := min(start+MaxAssignBatch, len(ids))
		var res AssignResult
		body := assignRequest{TelecallerID: strings.TrimSpace(telecallerID), GymIDs: ids[start:end]}
		if err := s.api.DoJSON(ctx, apiclient.Post(rolePath(session.RoleManager, rest), body), &res); err != nil {
			return total, classify(op, err)
		}
		total.Updated += res.Updated
	}
	s.log.Info("gyms.assign", "op", rest, "telecaller_id", telecallerID, "gyms", len(ids), "updated", total.Updated)
	return total, nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ListTelecallers is manager only.
func (s *Service) ListTelecallers(ctx context.Context, q ListQuery) (Page[Telecaller], error) {
	const op = "callcenter.ListTelecallers"
	if _, err := s.requireRole(ctx, op, session.RoleManager); err != nil {
		return Page[Telecaller]{}, err
	}
	var out Page[Telecaller]
	if err := s.api.DoJSON(ctx, apiclient.Get(rolePath(session.RoleManager, "telecallers"), q.Values()), &out); err != nil {
		return Page[Telecaller]{}, classify(op, err)
	}
	return out, nil
}

// TelecallerInput creates a telecaller account.
type TelecallerInput struct {
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
}

// CreateTelecaller is manager only.
func (s *Service) CreateTelecaller(ctx context.Context, in TelecallerInput) (Telecaller, error) {
	const op = "callcenter.CreateTelecaller"
	in.Name = normalizeSearch(in.Name)
	if in.Name == "" || len(in.Name) > 120 {
		return Telecaller{}, invalid(op, "name must be 1 to 120 characters")
	}
	m, ok := NormalizeMobile(in.Mobile)
	if !ok {
		return Telecaller{}, invalid(op, "mobile must have 10 to 15 digits")
	}
	in.Mobile = m
	if _, err := s.requireRole(ctx, op, session.RoleManager); err != nil {
		return Telecaller{}, err
	}

	var out Telecaller
	if err := s.api.DoJSON(ctx, apiclient.Post(rolePath(session.RoleManager, "telecallers"), in), &out); err != nil {
		return Telecaller{}, classify(op, err)
	}
	s.log.Info("telecaller.created", "telecaller_id", out.ID)
	return out, nil
}

// SetTelecallerActive enables or disables a telecaller. Manager only.
func (s *Service) SetTelecallerActive(ctx context.Context, telecallerID string, active bool) (Telecaller, error) {
	const op = "callcenter.SetTelecallerActive"
	telecallerID = strings.TrimSpace(telecallerID)
	if telecallerID == "" {
		return Telecaller{}, invalid(op, "telecaller id is required")
	}
	if _, err := s.requireRole(ctx, op, session.RoleManager); err != nil {
		return Telecaller{}, err
	}

	path := rolePath(session.RoleManager, fmt.Sprintf("telecallers/%s", url.PathEscape(telecallerID)))
	var out Telecaller
	if err := s.api.DoJSON(ctx, apiclient.Patch(path, map[string]bool{"is_active": active}), &out); err != nil {
		return Telecaller{}, classify(op, err)
	}
	s.log.Info("telecaller.updated", "telecaller_id", telecallerID, "active", active)
	return out, nil
}
