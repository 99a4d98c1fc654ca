package callcenter

import (
	"context"
	"fmt"
	"strings"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/session"
)

type otpRequest struct {
	Mobile      string `json:"mobile"`
	Role        string `json:"role"`
	OTP         string `json:"otp,omitempty"`
	DeviceClass string `json:"device_class,omitempty"`
}

type userDTO struct {
	ID        string `json:"id"`
	SubjectID string `json:"subject_id"`
	Name      string `json:"name"`
	Mobile    string `json:"mobile"`
	Role      string `json:"role"`
}

func (u userDTO) subject() string {
	if u.SubjectID != "" {
		return u.SubjectID
	}
	return u.ID
}

// verifyResponse accepts both {"user":{...}} and a bare user object.
type verifyResponse struct {
	User *userDTO `json:"user"`
	userDTO
}

// SendOTP asks the backend to deliver a one-time code.
func (s *Service) SendOTP(ctx context.Context, mobile string, role session.Role) error {
	const op = "callcenter.SendOTP"
	m, ok := NormalizeMobile(mobile)
	if !ok {
		return invalid(op, "mobile must have 10 to 15 digits")
	}
	if _, err := session.ParseRole(string(role)); err != nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	req := apiclient.Post("/auth/send-otp", otpRequest{Mobile: m, Role: string(role)})
	if err := s.api.DoJSON(ctx, req, nil); err != nil {
		return classify(op, err)
	}
	s.log.Info("auth.otp.sent", "role", role)
	return nil
}

// VerifyOTP exchanges the code for session cookies and stores the identity.
func (s *Service) VerifyOTP(ctx context.Context, mobile, otp string, role session.Role) (session.Identity, error) {
	const op = "callcenter.VerifyOTP"
	m, ok := NormalizeMobile(mobile)
	if !ok {
		return session.Identity{}, invalid(op, "mobile must have 10 to 15 digits")
	}
	otp = strings.TrimSpace(otp)
	if !validOTP(otp) {
		return session.Identity{}, invalid(op, "otp must be 4 to 8 digits")
	}
	if _, err := session.ParseRole(string(role)); err != nil {
		return session.Identity{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
	}

	var resp verifyResponse
	req := apiclient.Post("/auth/verify-otp", otpRequest{
		Mobile:      m,
		Role:        string(role),
		OTP:         otp,
		DeviceClass: string(s.device),
	})
	if err := s.api.DoJSON(ctx, req, &resp); err != nil {
		return session.Identity{}, classify(op, err)
	}

	user := resp.userDTO
	if resp.User != nil {
		user = *resp.User
	}
	gotRole := role
	if user.Role != "" {
		r, err := session.ParseRole(user.Role)
		if err != nil {
			return session.Identity{}, fmt.Errorf("%s: %w", op, err)
		}
		gotRole = r
	}

	id := session.Identity{
		SubjectID:   user.subject(),
		Role:        gotRole,
		Name:        user.Name,
		Mobile:      m,
		DeviceClass: s.device,
		IssuedAt:    s.now().UTC(),
	}
	if err := s.store.Save(ctx, id); err != nil {
		return session.Identity{}, fmt.Errorf("%s: save identity: %w", op, err)
	}
	s.log.Info("auth.login", "role", id.Role, "subject_id", id.SubjectID)
	return id, nil
}

// Logout tells the backend to revoke the session, then drops local state
// whatever the backend answered.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.api.DoJSON(ctx, apiclient.Post("/auth/logout", nil), nil); err != nil {
		s.log.Warn("auth.logout.remote_fail", "err", err)
	}
	if err := s.api.ClearSession(ctx); err != nil {
		return fmt.Errorf("callcenter.Logout: %w", err)
	}
	s.log.Info("auth.logout")
	return nil
}
