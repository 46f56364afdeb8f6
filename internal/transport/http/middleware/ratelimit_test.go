package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func sendOTPStub(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func hit(h http.Handler, remoteAddr string) int {
	r := httptest.NewRequest(http.MethodPost, "/v1/auth/send-otp", nil)
	r.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w.Code
}

func TestLimit_BurstThenThrottled(t *testing.T) {
	// Zero refill so only the burst is spendable within the test.
	rl := NewRateLimiter(rate.Limit(0), 3)
	h := rl.Limit(http.HandlerFunc(sendOTPStub))

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111"), "request %d within burst", i)
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1111"))
}

func TestLimit_PerIPBucketsAreIndependent(t *testing.T) {
	rl := NewRateLimiter(rate.Limit(0), 1)
	h := rl.Limit(http.HandlerFunc(sendOTPStub))

	require.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111"))
	require.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:2222"), "same IP, different port")
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1111"), "a throttled client must not starve others")
}

func TestRealIP_HeaderPrecedence(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "192.168.1.1:54321"
	assert.Equal(t, "192.168.1.1", realIP(r), "socket address without proxy headers")

	r.Header.Set("X-Real-Ip", "9.10.11.12")
	assert.Equal(t, "9.10.11.12", realIP(r), "X-Real-Ip beats the socket address")

	r.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	assert.Equal(t, "1.2.3.4", realIP(r), "first X-Forwarded-For hop beats everything")
}
