package binding

import (
	"context"
	"errors"
	"testing"

	"github.com/intake-api/internal/domain"
	"github.com/intake-api/internal/infrastructure/telegram"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct{ mock.Mock }

func (m *mockStore) Upsert(ctx context.Context, b *domain.ChannelBinding) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockStore) Get(ctx context.Context, contactIdentifier string) (*domain.ChannelBinding, error) {
	args := m.Called(ctx, contactIdentifier)
	if b, _ := args.Get(0).(*domain.ChannelBinding); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockBot struct{ mock.Mock }

func (m *mockBot) SendMessage(ctx context.Context, chatID, text string) error {
	return m.Called(ctx, chatID, text).Error(0)
}
func (m *mockBot) GetUpdates(ctx context.Context, limit int) ([]telegram.Update, error) {
	args := m.Called(ctx, limit)
	if u, _ := args.Get(0).([]telegram.Update); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

func msgUpdate(chatID int64, username, firstName string) telegram.Update {
	return telegram.Update{
		Message: &telegram.Message{
			From: &telegram.User{Username: username, FirstName: firstName},
			Chat: telegram.Chat{ID: chatID},
		},
	}
}

// --- ResolveChatID ---

func TestResolveChatID_PrimaryHit(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "johndoe").Return(&domain.ChannelBinding{
		ContactIdentifier: "johndoe", ChatID: "42",
	}, nil)

	svc := NewService(st, &mockBot{}, 100, nil)
	chatID, err := svc.ResolveChatID(context.Background(), "@JohnDoe")
	require.NoError(t, err)
	assert.Equal(t, "42", chatID)
}

func TestResolveChatID_FallbackHit_PersistsBinding(t *testing.T) {
	st := &mockStore{}
	bot := &mockBot{}
	st.On("Get", mock.Anything, "johndoe").Return(nil, domain.ErrNotFound)
	bot.On("GetUpdates", mock.Anything, 100).Return([]telegram.Update{
		msgUpdate(7, "SomeoneElse", "X"),
		msgUpdate(99, "JohnDoe", "John"),
	}, nil)
	var saved *domain.ChannelBinding
	st.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.ChannelBinding")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.ChannelBinding) }).
		Return(nil)

	svc := NewService(st, bot, 100, nil)
	chatID, err := svc.ResolveChatID(context.Background(), "johndoe")
	require.NoError(t, err)
	assert.Equal(t, "99", chatID)

	require.NotNil(t, saved, "discovered binding must be persisted")
	assert.Equal(t, "johndoe", saved.ContactIdentifier)
	assert.Equal(t, "99", saved.ChatID)
	assert.Equal(t, "JohnDoe", saved.Handle)
}

func TestResolveChatID_FallbackPersistFailureStillReturnsID(t *testing.T) {
	st := &mockStore{}
	bot := &mockBot{}
	st.On("Get", mock.Anything, "johndoe").Return(nil, domain.ErrNotFound)
	bot.On("GetUpdates", mock.Anything, 100).Return([]telegram.Update{msgUpdate(99, "johndoe", "")}, nil)
	st.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("write throttled"))

	chatID, err := NewService(st, bot, 100, nil).ResolveChatID(context.Background(), "johndoe")
	require.NoError(t, err)
	assert.Equal(t, "99", chatID)
}

func TestResolveChatID_NoMatchAnywhere_IsNotFound(t *testing.T) {
	st := &mockStore{}
	bot := &mockBot{}
	st.On("Get", mock.Anything, "ghost").Return(nil, domain.ErrNotFound)
	bot.On("GetUpdates", mock.Anything, 100).Return([]telegram.Update{msgUpdate(1, "other", "")}, nil)

	_, err := NewService(st, bot, 100, nil).ResolveChatID(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrUnavailable))
}

func TestResolveChatID_ProviderTimeout_IsUnavailableNotNotFound(t *testing.T) {
	st := &mockStore{}
	bot := &mockBot{}
	st.On("Get", mock.Anything, "johndoe").Return(nil, domain.ErrNotFound)
	bot.On("GetUpdates", mock.Anything, 100).Return(nil, domain.ErrUnavailable)

	_, err := NewService(st, bot, 100, nil).ResolveChatID(context.Background(), "johndoe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestResolveChatID_StoreFailure_IsUnavailable(t *testing.T) {
	st := &mockStore{}
	st.On("Get", mock.Anything, "johndoe").Return(nil, errors.New("dynamo 500"))

	_, err := NewService(st, &mockBot{}, 100, nil).ResolveChatID(context.Background(), "johndoe")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

// --- HandleUpdate ---

func TestHandleUpdate_UpsertsBinding(t *testing.T) {
	st := &mockStore{}
	var saved *domain.ChannelBinding
	st.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.ChannelBinding")).
		Run(func(args mock.Arguments) { saved = args.Get(1).(*domain.ChannelBinding) }).
		Return(nil)

	NewService(st, &mockBot{}, 100, nil).HandleUpdate(context.Background(), msgUpdate(555, "JohnDoe", "John"))

	require.NotNil(t, saved)
	assert.Equal(t, "johndoe", saved.ContactIdentifier)
	assert.Equal(t, "555", saved.ChatID)
	assert.Equal(t, "John", saved.FirstName)
	assert.False(t, saved.UpdatedAt.IsZero())
}

func TestHandleUpdate_NewChatIDOverwritesOldBinding(t *testing.T) {
	// Last write wins: the store's Upsert is called with the new chat id
	// and resolution afterwards returns it.
	st := &mockStore{}
	svc := NewService(st, &mockBot{}, 100, nil)

	st.On("Upsert", mock.Anything, mock.MatchedBy(func(b *domain.ChannelBinding) bool {
		return b.ChatID == "1001" && b.ContactIdentifier == "johndoe"
	})).Return(nil).Once()
	svc.HandleUpdate(context.Background(), msgUpdate(1001, "johndoe", ""))

	st.On("Get", mock.Anything, "johndoe").Return(&domain.ChannelBinding{
		ContactIdentifier: "johndoe", ChatID: "1001",
	}, nil)
	chatID, err := svc.ResolveChatID(context.Background(), "johndoe")
	require.NoError(t, err)
	assert.Equal(t, "1001", chatID)
	st.AssertExpectations(t)
}

func TestHandleUpdate_NoUsername_Ignored(t *testing.T) {
	st := &mockStore{}
	NewService(st, &mockBot{}, 100, nil).HandleUpdate(context.Background(), msgUpdate(1, "", "Anon"))
	st.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestHandleUpdate_EditedMessageAlsoBinds(t *testing.T) {
	st := &mockStore{}
	st.On("Upsert", mock.Anything, mock.Anything).Return(nil)

	upd := telegram.Update{
		EditedMessage: &telegram.Message{
			From: &telegram.User{Username: "johndoe"},
			Chat: telegram.Chat{ID: 3},
		},
	}
	NewService(st, &mockBot{}, 100, nil).HandleUpdate(context.Background(), upd)
	st.AssertCalled(t, "Upsert", mock.Anything, mock.Anything)
}
