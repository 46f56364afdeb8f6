package http

import (
	"github.com/intake-api/internal/infrastructure/dynamo"
	"github.com/intake-api/internal/infrastructure/sns"
	"github.com/intake-api/internal/infrastructure/telegram"
	"github.com/intake-api/internal/metrics"
	"github.com/intake-api/internal/pkg/crypt"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	OTPRepo     *dynamo.OTPRepo
	BindingRepo *dynamo.BindingRepo
	SessionRepo *dynamo.SessionRepo
	RecordRepo  *dynamo.RecordRepo
	Bot         telegram.API
	SMSSender   sns.SMSSender
	Cipher      *crypt.Cipher
	Metrics     *metrics.Metrics
}
