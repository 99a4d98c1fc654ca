package callcenter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/calendar"
	"telecall/cmd/internal/session"
)

// MaxRemarks is the longest remark the backend stores.
const MaxRemarks = 1000

// maxPages stops AllCalls from walking a backend that never reports the end.
const maxPages = 1000

// CallInput logs one call. FollowUpDate is YYYY-MM-DD.
type CallInput struct {
	GymID        string  `json:"gym_id"`
	Outcome      Outcome `json:"outcome"`
	Remarks      string  `json:"remarks,omitempty"`
	FollowUpDate string  `json:"follow_up_date,omitempty"`
}

// ValidateCall checks the input against the service clock and horizon.
func (s *Service) ValidateCall(in CallInput) (CallInput, error) {
	const op = "callcenter.LogCall"
	in.GymID = strings.TrimSpace(in.GymID)
	in.Remarks = strings.TrimSpace(in.Remarks)
	in.FollowUpDate = strings.TrimSpace(in.FollowUpDate)

	if in.GymID == "" {
		return in, invalid(op, "gym id is required")
	}
	if !in.Outcome.Valid() {
		return in, invalid(op, fmt.Sprintf("unknown outcome %q", in.Outcome))
	}
	if utf8.RuneCountInString(in.Remarks) > MaxRemarks {
		return in, invalid(op, fmt.Sprintf("remarks exceed %d characters", MaxRemarks))
	}

	if in.FollowUpDate == "" {
		if in.Outcome.NeedsFollowUp() {
			return in, invalid(op, fmt.Sprintf("%s requires a follow-up date", in.Outcome))
		}
		return in, nil
	}

	d, err := calendar.Parse(in.FollowUpDate)
	if err != nil {
		return in, invalid(op, err.Error())
	}
	if d.Before(s.Today()) {
		return in, invalid(op, "follow-up date is in the past")
	}
	if maxDate, ok := s.MaxFollowUp(); ok && d.After(maxDate) {
		return in, invalid(op, fmt.Sprintf("follow-up date is after %s", maxDate))
	}
	in.FollowUpDate = d.String()
	return in, nil
}

// LogCall records a call. Telecaller only.
func (s *Service) LogCall(ctx context.Context, in CallInput) (Call, error) {
	const op = "callcenter.LogCall"
	in, err := s.ValidateCall(in)
	if err != nil {
		return Call{}, err
	}
	if _, err := s.requireRole(ctx, op, session.RoleTelecaller); err != nil {
		return Call{}, err
	}

	var out Call
	if err := s.api.DoJSON(ctx, apiclient.Post(rolePath(session.RoleTelecaller, "calls"), in), &out); err != nil {
		return Call{}, classify(op, err)
	}
	s.log.Info("call.logged", "call_id", out.ID, "gym_id", in.GymID, "outcome", in.Outcome)
	return out, nil
}

// ListCalls returns one page of the call log for the signed-in role.
func (s *Service) ListCalls(ctx context.Context, q CallQuery) (Page[Call], error) {
	const op = "callcenter.ListCalls"
	id, err := s.identity(ctx, op)
	if err != nil {
		return Page[Call]{}, err
	}
	if id.Role == session.RoleTelecaller {
		q.TelecallerID = ""
	}
	v, err := q.Values()
	if err != nil {
		return Page[Call]{}, err
	}

	var out Page[Call]
	if err := s.api.DoJSON(ctx, apiclient.Get(rolePath(id.Role, "calls"), v), &out); err != nil {
		return Page[Call]{}, classify(op, err)
	}
	return out, nil
}

// AllCalls walks every page of ListCalls at the maximum page size.
func (s *Service) AllCalls(ctx context.Context, q CallQuery) ([]Call, error) {
	q.Limit = MaxLimit
	q.Page = 1

	var all []Call
	for i := 0; i < maxPages; i++ {
		page, err := s.ListCalls(ctx, q)
		if err != nil {
			return all, err
		}
		all = append(all, page.Items...)
		if !page.HasMore() || len(page.Items) == 0 {
			return all, nil
		}
		q.Page++
	}
	return all, fmt.Errorf("callcenter.AllCalls: stopped after %d pages", maxPages)
}

// ListFollowUps returns follow-ups for the signed-in role.
func (s *Service) ListFollowUps(ctx context.Context, q FollowUpQuery) (Page[FollowUp], error) {
	const op = "callcenter.ListFollowUps"
	id, err := s.identity(ctx, op)
	if err != nil {
		return Page[FollowUp]{}, err
	}
	v, err := q.Values()
	if err != nil {
		return Page[FollowUp]{}, err
	}

	var out Page[FollowUp]
	if err := s.api.DoJSON(ctx, apiclient.Get(rolePath(id.Role, "followups"), v), &out); err != nil {
		return Page[FollowUp]{}, classify(op, err)
	}
	return out, nil
}

// CompleteFollowUp marks a follow-up done. Telecaller only.
func (s *Service) CompleteFollowUp(ctx context.Context, followUpID string) (FollowUp, error) {
	const op = "callcenter.CompleteFollowUp"
	followUpID = strings.TrimSpace(followUpID)
	if followUpID == "" {
		return FollowUp{}, invalid(op, "follow-up id is required")
	}
	if _, err := s.requireRole(ctx, op, session.RoleTelecaller); err != nil {
		return FollowUp{}, err
	}

	path := rolePath(session.RoleTelecaller, "followups/"+url.PathEscape(followUpID))
	var out FollowUp
	body := map[string]FollowUpStatus{"status": FollowUpDone}
	if err := s.api.DoJSON(ctx, apiclient.Patch(path, body), &out); err != nil {
		return FollowUp{}, classify(op, err)
	}
	s.log.Info("followup.completed", "followup_id", followUpID)
	return out, nil
}
