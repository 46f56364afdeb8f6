package binding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/intake-api/internal/domain"
	"github.com/intake-api/internal/infrastructure/telegram"
	"github.com/intake-api/internal/metrics"
)

// BindingStore is the durable handle → chat-id map the resolver reads and
// maintains.
type BindingStore interface {
	Upsert(ctx context.Context, b *domain.ChannelBinding) error
	Get(ctx context.Context, contactIdentifier string) (*domain.ChannelBinding, error)
}

type Service interface {
	// ResolveChatID maps a raw handle to a deliverable chat id.
	// domain.ErrNotFound means the user has never contacted the channel;
	// domain.ErrUnavailable means the lookup itself failed. Callers must
	// not conflate the two.
	ResolveChatID(ctx context.Context, handle string) (string, error)

	// HandleUpdate ingests one inbound platform event, persisting the
	// handle → chat-id binding when a handle is present. It never returns
	// an error: the webhook edge acks everything.
	HandleUpdate(ctx context.Context, upd telegram.Update)
}

type service struct {
	store     BindingStore
	bot       telegram.API
	scanLimit int
	metrics   *metrics.Metrics
}

func NewService(store BindingStore, bot telegram.API, scanLimit int, m *metrics.Metrics) Service {
	return &service{store: store, bot: bot, scanLimit: scanLimit, metrics: m}
}

func (s *service) ResolveChatID(ctx context.Context, handle string) (string, error) {
	contact := domain.NormalizeHandle(handle)

	b, err := s.store.Get(ctx, contact)
	if err == nil {
		return b.ChatID, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("binding lookup: %v: %w", err, domain.ErrUnavailable)
	}

	// Fallback: the webhook may not have seen this user yet. Scan the most
	// recent bot updates for a matching username.
	updates, err := s.bot.GetUpdates(ctx, s.scanLimit)
	if err != nil {
		return "", fmt.Errorf("fallback poll: %w", err)
	}
	for _, upd := range updates {
		msg := upd.Msg()
		if msg == nil || msg.From == nil {
			continue
		}
		if domain.NormalizeHandle(msg.From.Username) != contact {
			continue
		}
		chatID := strconv.FormatInt(msg.Chat.ID, 10)
		// Persist the discovered binding so the next issuance hits the
		// primary path. Failure here only costs us the shortcut.
		if err := s.store.Upsert(ctx, bindingFromMessage(contact, chatID, msg)); err != nil {
			slog.Warn("could not persist discovered binding", "contact", contact, "err", err)
		}
		return chatID, nil
	}
	return "", fmt.Errorf("no chat binding for %s: %w", contact, domain.ErrNotFound)
}

func (s *service) HandleUpdate(ctx context.Context, upd telegram.Update) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.Inc()
	}
	msg := upd.Msg()
	if msg == nil || msg.From == nil || msg.From.Username == "" {
		// Without a username there is nothing to match questionnaires
		// against; drop silently.
		return
	}
	contact := domain.NormalizeHandle(msg.From.Username)
	chatID := strconv.FormatInt(msg.Chat.ID, 10)
	if err := s.store.Upsert(ctx, bindingFromMessage(contact, chatID, msg)); err != nil {
		slog.Error("could not save channel binding", "contact", contact, "err", err)
		return
	}
	slog.Info("saved channel binding", "contact", contact, "chat_id", chatID)
}

func bindingFromMessage(contact, chatID string, msg *telegram.Message) *domain.ChannelBinding {
	return &domain.ChannelBinding{
		ContactIdentifier: contact,
		ChatID:            chatID,
		Handle:            msg.From.Username,
		FirstName:         msg.From.FirstName,
		LastName:          msg.From.LastName,
		UpdatedAt:         time.Now().UTC(),
	}
}
