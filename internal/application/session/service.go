package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/intake-api/internal/domain"
	"github.com/intake-api/internal/metrics"
	pkgtoken "github.com/intake-api/internal/pkg/token"
)

// VerifyRequest carries the channel input plus the submitted code.
type VerifyRequest struct {
	Handle *string `json:"handle"`
	Phone  *string `json:"phone"`
	Code   string  `json:"code" validate:"required,len=6,numeric"`
}

// CodeStore is the slice of the one-time-code table verification needs.
type CodeStore interface {
	Get(ctx context.Context, contactIdentifier string) (*domain.OneTimeCode, error)
	Delete(ctx context.Context, contactIdentifier string) error
}

// TokenStore is the durable session-token table.
type TokenStore interface {
	Put(ctx context.Context, s *domain.SessionToken) error
	Get(ctx context.Context, token string) (*domain.SessionToken, error)
}

type Service interface {
	// Verify exchanges a valid code for a fresh session token. Unknown
	// contact, wrong code and expired code all map to the same
	// domain.ErrUnauthorized so responses cannot be used to enumerate
	// contacts or probe code lifetimes.
	Verify(ctx context.Context, req VerifyRequest) (*domain.SessionToken, error)

	// VerifyToken is a pure lookup of a stored, non-expired token. No
	// renewal in place.
	VerifyToken(ctx context.Context, token string) (*domain.Session, error)
}

type service struct {
	codes      CodeStore
	tokens     TokenStore
	sessionTTL time.Duration
	metrics    *metrics.Metrics
}

func NewService(codes CodeStore, tokens TokenStore, sessionTTL time.Duration, m *metrics.Metrics) Service {
	return &service{codes: codes, tokens: tokens, sessionTTL: sessionTTL, metrics: m}
}

func (s *service) Verify(ctx context.Context, req VerifyRequest) (*domain.SessionToken, error) {
	ch, err := domain.ChannelFromInput(req.Handle, req.Phone)
	if err != nil {
		return nil, err
	}

	row, err := s.codes.Get(ctx, ch.Value)
	if err != nil {
		// Only an absent code is an authentication failure. A store outage
		// stays a storage error so the edge answers 500, not 401.
		if errors.Is(err, domain.ErrNotFound) {
			return nil, s.authFailure("no code on file", ch.Value)
		}
		return nil, err
	}
	if row.Code != req.Code {
		// The code survives a wrong guess; brute force is throttled at the
		// edge by the per-IP rate limiter.
		return nil, s.authFailure("code mismatch", ch.Value)
	}
	if row.Expired(time.Now()) {
		return nil, s.authFailure("code expired", ch.Value)
	}

	// Single use: consume the code. A failed delete is logged, not fatal;
	// the row still dies by TTL.
	if err := s.codes.Delete(ctx, ch.Value); err != nil {
		slog.Warn("could not delete consumed code", "contact", ch.Value, "err", err)
	}

	tok, err := pkgtoken.NewSessionToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	st := &domain.SessionToken{
		Token:             tok,
		ContactIdentifier: ch.Value,
		IssuedAt:          now,
		ExpiresAt:         now.Add(s.sessionTTL).Unix(),
	}
	if err := s.tokens.Put(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *service) VerifyToken(ctx context.Context, token string) (*domain.Session, error) {
	if token == "" {
		return nil, fmt.Errorf("session token required: %w", domain.ErrUnauthorized)
	}
	st, err := s.tokens.Get(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invalid session: %w", domain.ErrUnauthorized)
	}
	if st.Expired(time.Now()) {
		return nil, fmt.Errorf("expired session: %w", domain.ErrUnauthorized)
	}
	return &domain.Session{ContactIdentifier: st.ContactIdentifier}, nil
}

// authFailure logs the real reason server-side and returns the uniform
// external error.
func (s *service) authFailure(reason, contact string) error {
	slog.Info("verification failed", "reason", reason, "contact", contact)
	if s.metrics != nil {
		s.metrics.VerifyFailures.Inc()
	}
	return fmt.Errorf("invalid or expired code: %w", domain.ErrUnauthorized)
}
