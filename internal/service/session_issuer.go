package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prperemyshlev/risk-auth/internal/domain"
	"github.com/prperemyshlev/risk-auth/internal/provider"
	"github.com/prperemyshlev/risk-auth/internal/repository"
	"github.com/prperemyshlev/risk-auth/pkg/observability"
	"go.uber.org/zap"
)

// LoginState is a step of the OAuth login flow
type LoginState int

const (
	StateStart LoginState = iota
	StateRedirectIssued
	StateAwaitingCallback
	StateTokenExchanged
	StateProfileFetched
	StateUserUpserted
	StateSecurityChecked
	StateSessionMinted
	StateFailed
)

func (s LoginState) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateRedirectIssued:
		return "redirect_issued"
	case StateAwaitingCallback:
		return "awaiting_callback"
	case StateTokenExchanged:
		return "token_exchanged"
	case StateProfileFetched:
		return "profile_fetched"
	case StateUserUpserted:
		return "user_upserted"
	case StateSecurityChecked:
		return "security_checked"
	case StateSessionMinted:
		return "session_minted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("LoginState(%d)", int(s))
	}
}

// Login outcome labels for metrics
const (
	outcomeSuccess         = "success"
	outcomeUnknownProvider = "unknown_provider"
	outcomeExchangeFailed  = "exchange_failed"
	outcomeProviderError   = "provider_error"
	outcomeBadProfile      = "bad_profile"
	outcomeStoreError      = "store_error"
	outcomeAuditFailed     = "audit_failed"
	outcomeDenied          = "denied"
	outcomePolicyError     = "policy_error"
	outcomeEncodeFailed    = "encode_failed"
)

// LoginError is a failed login. State is the last state reached before the
// failure and Status the HTTP status to answer with.
type LoginError struct {
	State  LoginState
	Status int
	Err    error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login failed after %s: %v", e.State, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}

// CallbackRequest is what the provider redirect hands back to us
type CallbackRequest struct {
	Platform domain.Platform
	Code     string
	ClientIP *string
}

// Session is a successfully minted login. Username is the canonical stored
// spelling and MaxAge applies to both cookies.
type Session struct {
	Claims   domain.Claims
	Token    string
	Username string
	MaxAge   time.Duration
}

// SessionIssuer runs the OAuth login flow from redirect to minted session
type SessionIssuer struct {
	providers *provider.Registry
	users     repository.UserRepository
	gate      *SecurityGate
	codec     ClaimsEncoder
	metrics   *observability.LoginMetrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewSessionIssuer creates a session issuer. metrics may be nil.
func NewSessionIssuer(
	providers *provider.Registry,
	users repository.UserRepository,
	gate *SecurityGate,
	codec ClaimsEncoder,
	metrics *observability.LoginMetrics,
	logger *zap.Logger,
) *SessionIssuer {
	return &SessionIssuer{
		providers: providers,
		users:     users,
		gate:      gate,
		codec:     codec,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// SetNow overrides the clock used for claims expiry (for testing)
func (s *SessionIssuer) SetNow(fn func() time.Time) {
	s.now = fn
}

// BeginLogin returns the provider authorize URL carrying state
func (s *SessionIssuer) BeginLogin(platform domain.Platform, state string) (string, error) {
	p, err := s.providers.Get(platform)
	if err != nil {
		return "", &LoginError{State: StateStart, Status: http.StatusNotFound, Err: err}
	}

	s.transition(platform, StateRedirectIssued)
	return p.AuthCodeURL(state), nil
}

// CompleteLogin handles the provider callback. On success the caller sets
// the username and claims cookies from the returned Session; on failure it
// returns a *LoginError and no cookie may be set.
func (s *SessionIssuer) CompleteLogin(ctx context.Context, req CallbackRequest) (*Session, error) {
	p, err := s.providers.Get(req.Platform)
	if err != nil {
		return nil, s.fail(ctx, req.Platform, StateStart, http.StatusNotFound, outcomeUnknownProvider, err)
	}
	s.transition(req.Platform, StateAwaitingCallback)

	token, err := p.Exchange(ctx, req.Code)
	if err != nil {
		return nil, s.fail(ctx, req.Platform, StateAwaitingCallback, http.StatusBadRequest, outcomeExchangeFailed, err)
	}
	s.transition(req.Platform, StateTokenExchanged)

	profile, err := p.FetchProfile(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrProviderBadPayload) {
			return nil, s.fail(ctx, req.Platform, StateTokenExchanged, http.StatusBadRequest, outcomeBadProfile, err)
		}
		return nil, s.fail(ctx, req.Platform, StateTokenExchanged, http.StatusInternalServerError, outcomeProviderError, err)
	}
	s.transition(req.Platform, StateProfileFetched)

	if err := s.users.Upsert(ctx, profile.DisplayName, req.Platform); err != nil {
		return nil, s.fail(ctx, req.Platform, StateProfileFetched, http.StatusInternalServerError, outcomeStoreError, err)
	}
	s.transition(req.Platform, StateUserUpserted)

	user, err := s.users.Load(ctx, profile.DisplayName, req.Platform)
	if err != nil {
		return nil, s.fail(ctx, req.Platform, StateUserUpserted, http.StatusInternalServerError, outcomeStoreError, err)
	}

	if err := s.gate.Check(ctx, user, profile, req.ClientIP); err != nil {
		var deny *domain.DenyError
		switch {
		case errors.As(err, &deny):
			return nil, s.fail(ctx, req.Platform, StateUserUpserted, http.StatusForbidden, outcomeDenied, err)
		case errors.Is(err, domain.ErrAuditFailure):
			return nil, s.fail(ctx, req.Platform, StateUserUpserted, http.StatusInternalServerError, outcomeAuditFailed, err)
		default:
			return nil, s.fail(ctx, req.Platform, StateUserUpserted, http.StatusInternalServerError, outcomePolicyError, err)
		}
	}
	s.transition(req.Platform, StateSecurityChecked)

	duration := p.SessionDuration()
	claims := domain.Claims{
		UserID:       user.ID,
		Username:     user.Username,
		Platform:     user.Platform,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    s.now().Add(duration).Truncate(time.Second),
	}

	encoded, err := s.codec.Encode(claims)
	if err != nil {
		return nil, s.fail(ctx, req.Platform, StateSecurityChecked, http.StatusNotAcceptable, outcomeEncodeFailed, err)
	}
	s.transition(req.Platform, StateSessionMinted)

	s.record(ctx, req.Platform, outcomeSuccess)
	s.logger.Info("login succeeded",
		zap.String("platform", req.Platform.String()),
		zap.Int64("user_id", user.ID),
		zap.String("username", user.Username),
	)

	return &Session{
		Claims:   claims,
		Token:    encoded,
		Username: user.Username,
		MaxAge:   duration,
	}, nil
}

func (s *SessionIssuer) transition(platform domain.Platform, state LoginState) {
	s.logger.Debug("login state",
		zap.String("platform", platform.String()),
		zap.Stringer("state", state),
	)
}

func (s *SessionIssuer) fail(ctx context.Context, platform domain.Platform, state LoginState, status int, outcome string, err error) error {
	fields := []zap.Field{
		zap.String("platform", platform.String()),
		zap.Stringer("state", state),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("login failed", fields...)
	} else {
		s.logger.Warn("login failed", fields...)
	}

	s.record(ctx, platform, outcome)

	return &LoginError{State: state, Status: status, Err: err}
}

func (s *SessionIssuer) record(ctx context.Context, platform domain.Platform, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordAttempt(ctx, platform.String(), outcome)
	}
}
