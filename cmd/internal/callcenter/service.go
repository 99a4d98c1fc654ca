package callcenter

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"telecall/cmd/internal/apiclient"
	"telecall/cmd/internal/calendar"
	"telecall/cmd/internal/session"
)

// API is the part of apiclient.Client the service uses.
type API interface {
	DoJSON(ctx context.Context, req apiclient.Request, dst any) error
	ClearSession(ctx context.Context) error
}

// Options configures a Service.
type Options struct {
	// Now is the clock for follow-up validation. Default time.Now.
	Now func() time.Time
	// FollowUpHorizon caps how far ahead a follow-up may be scheduled. Zero means no cap.
	FollowUpHorizon time.Duration
	// DeviceClass is stored with the identity on login. Default desktop.
	DeviceClass session.DeviceClass
	Log         *slog.Logger
}

// Service exposes the dashboard operations for the signed-in role.
type Service struct {
	api     API
	store   session.Store
	now     func() time.Time
	horizon time.Duration
	device  session.DeviceClass
	log     *slog.Logger
}

func New(api API, store session.Store, opts Options) *Service {
	s := &Service{
		api:     api,
		store:   store,
		now:     opts.Now,
		horizon: opts.FollowUpHorizon,
		device:  opts.DeviceClass,
		log:     opts.Log,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.device == "" {
		s.device = session.DeviceDesktop
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Whoami returns the stored identity.
func (s *Service) Whoami(ctx context.Context) (session.Identity, error) {
	return s.store.Load(ctx)
}

// Today is the current calendar date on the service clock.
func (s *Service) Today() calendar.Date { return calendar.FromTime(s.now()) }

// MaxFollowUp is the latest date a follow-up may be set to, if capped.
func (s *Service) MaxFollowUp() (calendar.Date, bool) {
	if s.horizon <= 0 {
		return calendar.Date{}, false
	}
	return calendar.FromTime(s.now().Add(s.horizon)), true
}

func (s *Service) identity(ctx context.Context, op string) (session.Identity, error) {
	id, err := s.store.Load(ctx)
	if err != nil {
		return session.Identity{}, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

func (s *Service) requireRole(ctx context.Context, op string, role session.Role) (session.Identity, error) {
	id, err := s.identity(ctx, op)
	if err != nil {
		return id, err
	}
	if id.Role != role {
		return id, OpError{Op: op, Kind: ErrForbidden, Msg: fmt.Sprintf("requires %s role", role)}
	}
	return id, nil
}

// rolePath builds /api/<role>/<rest>.
func rolePath(role session.Role, rest string) string {
	return "/api/" + url.PathEscape(string(role)) + "/" + rest
}

// Stats returns the dashboard aggregates for the signed-in role.
func (s *Service) Stats(ctx context.Context) (DashboardStats, error) {
	const op = "callcenter.Stats"
	id, err := s.identity(ctx, op)
	if err != nil {
		return DashboardStats{}, err
	}
	var out DashboardStats
	if err := s.api.DoJSON(ctx, apiclient.Get(rolePath(id.Role, "dashboard"), nil), &out); err != nil {
		return DashboardStats{}, classify(op, err)
	}
	return out, nil
}
