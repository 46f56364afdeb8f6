package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/intake-api/internal/application/otp"
	"github.com/intake-api/internal/application/session"
	"github.com/intake-api/internal/pkg/validate"
)

// AuthHandler handles OTP issuance and verification.
type AuthHandler struct {
	issuer   otp.Service
	verifier session.Service
}

func NewAuthHandler(issuer otp.Service, verifier session.Service) *AuthHandler {
	return &AuthHandler{issuer: issuer, verifier: verifier}
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	var req otp.IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	result, err := h.issuer.Issue(r.Context(), req)
	if err != nil {
		// Full detail stays server-side; the client sees the fixed message
		// for the error class.
		slog.Error("otp issuance failed", "err", err)
		httpError(w, err)
		return
	}

	// Storage succeeded, so this is a 200 regardless of delivery. The
	// message tells the user whether the code actually went out.
	msg := "OTP sent successfully. Please check your messages."
	if !result.Delivered {
		msg = "OTP generated successfully. To receive the code, please message the bot first, then request a new code."
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Success: true, Message: msg})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req session.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	st, err := h.verifier.Verify(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SessionEnvelope{SessionToken: st.Token, ExpiresAt: st.ExpiresAt})
}
