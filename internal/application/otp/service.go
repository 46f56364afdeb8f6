package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/intake-api/internal/application/binding"
	"github.com/intake-api/internal/domain"
	"github.com/intake-api/internal/infrastructure/sns"
	"github.com/intake-api/internal/infrastructure/telegram"
	"github.com/intake-api/internal/metrics"
)

// IssueRequest carries the raw channel input. Exactly one of the fields must
// be present; the handle wins when both are.
type IssueRequest struct {
	Handle *string `json:"handle"`
	Phone  *string `json:"phone"`
}

// IssueResult reports whether the stored code was also delivered. Storage
// and delivery are decoupled on purpose: a code that could not be pushed is
// still valid and re-deliverable.
type IssueResult struct {
	Channel   domain.Channel
	Delivered bool
}

// CodeStore is the durable one-time-code table.
type CodeStore interface {
	PutActive(ctx context.Context, c *domain.OneTimeCode) error
	SweepExpired(ctx context.Context, now time.Time) error
}

type Service interface {
	Issue(ctx context.Context, req IssueRequest) (*IssueResult, error)
}

type service struct {
	codes           CodeStore
	resolver        binding.Service
	bot             telegram.API
	sms             sns.SMSSender
	deliveryTimeout time.Duration
	metrics         *metrics.Metrics
}

type ServiceDeps struct {
	Codes           CodeStore
	Resolver        binding.Service
	Bot             telegram.API
	SMS             sns.SMSSender
	DeliveryTimeout time.Duration
	Metrics         *metrics.Metrics
}

func NewService(deps ServiceDeps) Service {
	return &service{
		codes:           deps.Codes,
		resolver:        deps.Resolver,
		bot:             deps.Bot,
		sms:             deps.SMS,
		deliveryTimeout: deps.DeliveryTimeout,
		metrics:         deps.Metrics,
	}
}

func (s *service) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	ch, err := domain.ChannelFromInput(req.Handle, req.Phone)
	if err != nil {
		return nil, err
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	// Lazy GC of globally expired rows. Hygiene only; a failure must not
	// block issuance.
	if err := s.codes.SweepExpired(ctx, time.Now()); err != nil {
		slog.Warn("expired-code sweep failed", "err", err)
	}

	now := time.Now().UTC()
	row := &domain.OneTimeCode{
		ContactIdentifier: ch.Value,
		ChannelKind:       ch.Kind,
		Code:              code,
		ExpiresAt:         now.Add(domain.OTPTTL).Unix(),
		CreatedAt:         now,
	}
	// Single atomic upsert keyed by contact: any previous live code for
	// this contact is superseded in the same write.
	if err := s.codes.PutActive(ctx, row); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.OTPIssued.Inc()
	}

	delivered := s.deliver(ctx, ch, code)
	if !delivered && s.metrics != nil {
		s.metrics.OTPDeliveryFailed.Inc()
	}
	return &IssueResult{Channel: ch, Delivered: delivered}, nil
}

// deliver attempts one best-effort push of the code. Every failure is logged
// and swallowed: the stored code stays valid and the issuance call has
// already succeeded.
func (s *service) deliver(parent context.Context, ch domain.Channel, code string) bool {
	ctx, cancel := context.WithTimeout(parent, s.deliveryTimeout)
	defer cancel()

	switch ch.Kind {
	case domain.ChannelHandle:
		chatID, err := s.resolver.ResolveChatID(ctx, ch.Value)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				slog.Warn("no chat binding; user must message the bot first", "contact", ch.Value)
			} else {
				slog.Error("chat-id resolution failed", "contact", ch.Value, "err", err)
			}
			return false
		}
		if err := s.bot.SendMessage(ctx, chatID, otpMessage(code)); err != nil {
			slog.Error("could not deliver code", "contact", ch.Value, "err", err)
			return false
		}
		return true
	case domain.ChannelPhone:
		if s.sms == nil {
			slog.Warn("SMS sender not configured; code stored but not sent", "contact", ch.Value)
			return false
		}
		if err := s.sms.SendSMS(ctx, ch.Value, fmt.Sprintf("Your verification code: %s (valid 10 minutes)", code)); err != nil {
			slog.Error("could not deliver SMS code", "contact", ch.Value, "err", err)
			return false
		}
		return true
	}
	return false
}

// otpMessage mirrors the trilingual wording users of the intake form expect.
func otpMessage(code string) string {
	return fmt.Sprintf("🔐 Ваш код подтверждения: *%[1]s*\n\n⏰ Код действителен 10 минут.\n\n---\n\n🔐 Your verification code: *%[1]s*\n\n⏰ Code is valid for 10 minutes.\n\n---\n\n🔐 Ihr Bestätigungscode: *%[1]s*\n\n⏰ Code ist 10 Minuten gültig.", code)
}

// generateCode draws a uniform 6-digit code from crypto/rand.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
