package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/intake-api/internal/application/otp"
	"github.com/intake-api/internal/application/session"
	"github.com/intake-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockIssuer struct{ mock.Mock }

func (m *mockIssuer) Issue(ctx context.Context, req otp.IssueRequest) (*otp.IssueResult, error) {
	args := m.Called(ctx, req)
	if r, _ := args.Get(0).(*otp.IssueResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVerifier struct{ mock.Mock }

func (m *mockVerifier) Verify(ctx context.Context, req session.VerifyRequest) (*domain.SessionToken, error) {
	args := m.Called(ctx, req)
	if s, _ := args.Get(0).(*domain.SessionToken); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockVerifier) VerifyToken(ctx context.Context, token string) (*domain.Session, error) {
	args := m.Called(ctx, token)
	if s, _ := args.Get(0).(*domain.Session); s != nil {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func postJSON(t *testing.T, h http.HandlerFunc, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, target, bytes.NewReader([]byte(body)))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

// --- SendOTP ---

func TestSendOTP_Delivered(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).Return(&otp.IssueResult{
		Channel:   domain.Channel{Kind: domain.ChannelHandle, Value: "johndoe"},
		Delivered: true,
	}, nil)

	w := postJSON(t, NewAuthHandler(iss, nil).SendOTP, "/v1/auth/send-otp", `{"handle":"@JohnDoe"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MessageEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "sent")
}

func TestSendOTP_StoredButNotDelivered_Still200(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).Return(&otp.IssueResult{
		Channel:   domain.Channel{Kind: domain.ChannelHandle, Value: "johndoe"},
		Delivered: false,
	}, nil)

	w := postJSON(t, NewAuthHandler(iss, nil).SendOTP, "/v1/auth/send-otp", `{"handle":"johndoe"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp MessageEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "generated")
}

func TestSendOTP_MissingChannel_400(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).Return(nil, domain.ErrBadRequest)

	w := postJSON(t, NewAuthHandler(iss, nil).SendOTP, "/v1/auth/send-otp", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendOTP_StorageError_Generic500(t *testing.T) {
	iss := &mockIssuer{}
	iss.On("Issue", mock.Anything, mock.Anything).Return(nil, errors.New("dynamodb: ProvisionedThroughputExceededException on table one_time_codes"))

	w := postJSON(t, NewAuthHandler(iss, nil).SendOTP, "/v1/auth/send-otp", `{"handle":"a"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "one_time_codes", "internal detail must not leak")
}

func TestSendOTP_BadBody_400(t *testing.T) {
	w := postJSON(t, NewAuthHandler(&mockIssuer{}, nil).SendOTP, "/v1/auth/send-otp", `{broken`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// --- VerifyOTP ---

func TestVerifyOTP_ReturnsSessionToken(t *testing.T) {
	ver := &mockVerifier{}
	ver.On("Verify", mock.Anything, mock.Anything).Return(&domain.SessionToken{
		Token:             "abc123",
		ContactIdentifier: "johndoe",
		ExpiresAt:         1700000000,
	}, nil)

	w := postJSON(t, NewAuthHandler(nil, ver).VerifyOTP, "/v1/auth/verify-otp", `{"handle":"johndoe","code":"123456"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp SessionEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "abc123", resp.SessionToken)
}

func TestVerifyOTP_Failure_Uniform401(t *testing.T) {
	ver := &mockVerifier{}
	ver.On("Verify", mock.Anything, mock.Anything).Return(nil, domain.ErrUnauthorized)

	w := postJSON(t, NewAuthHandler(nil, ver).VerifyOTP, "/v1/auth/verify-otp", `{"handle":"johndoe","code":"999999"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyOTP_MalformedCodeRejectedAtEdge(t *testing.T) {
	ver := &mockVerifier{}
	w := postJSON(t, NewAuthHandler(nil, ver).VerifyOTP, "/v1/auth/verify-otp", `{"handle":"johndoe","code":"12"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	ver.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
}
