package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters the auth and vault paths report into.
type Metrics struct {
	OTPIssued          prometheus.Counter
	OTPDeliveryFailed  prometheus.Counter
	VerifyFailures     prometheus.Counter
	WebhookEvents      prometheus.Counter
	RecordsDecryptSkip prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		OTPIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_otp_issued_total",
			Help: "Total number of one-time codes stored",
		}),
		OTPDeliveryFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_otp_delivery_failed_total",
			Help: "Total number of OTP delivery attempts that failed or found no channel",
		}),
		VerifyFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_otp_verify_failures_total",
			Help: "Total number of failed OTP verification attempts",
		}),
		WebhookEvents: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_webhook_events_total",
			Help: "Total number of inbound messaging-platform events received",
		}),
		RecordsDecryptSkip: promauto.NewCounter(prometheus.CounterOpts{
			Name: "intake_records_decrypt_skipped_total",
			Help: "Total number of stored records omitted from listings because decryption failed",
		}),
	}
}
