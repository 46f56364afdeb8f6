package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/intake-api/internal/application/binding"
	"github.com/intake-api/internal/application/otp"
	"github.com/intake-api/internal/application/questionnaire"
	"github.com/intake-api/internal/application/session"
	"github.com/intake-api/internal/config"
	"github.com/intake-api/internal/transport/http/handler"
	appmiddleware "github.com/intake-api/internal/transport/http/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second per IP, burst of 10, on the OTP endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	bindingSvc := binding.NewService(deps.BindingRepo, deps.Bot, cfg.FallbackScanLimit, deps.Metrics)
	otpSvc := otp.NewService(otp.ServiceDeps{
		Codes:           deps.OTPRepo,
		Resolver:        bindingSvc,
		Bot:             deps.Bot,
		SMS:             deps.SMSSender,
		DeliveryTimeout: cfg.DeliveryTimeout,
		Metrics:         deps.Metrics,
	})
	sessionSvc := session.NewService(deps.OTPRepo, deps.SessionRepo, cfg.SessionTTL, deps.Metrics)
	questionnaireSvc := questionnaire.NewService(sessionSvc, deps.RecordRepo, deps.Cipher, deps.Metrics)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(otpSvc, sessionSvc)
	webhookH := handler.NewWebhookHandler(bindingSvc)
	questH := handler.NewQuestionnaireHandler(questionnaireSvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/send-otp", authH.SendOTP)
		r.With(sensitiveRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)

		r.Post("/telegram/webhook", webhookH.Receive)

		r.Get("/questionnaires", questH.List)
		r.Post("/questionnaires", questH.Submit)
		r.Put("/questionnaires/{id}", questH.Update)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
