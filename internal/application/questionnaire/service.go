package questionnaire

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"time"

	"github.com/intake-api/internal/application/session"
	"github.com/intake-api/internal/domain"
	"github.com/intake-api/internal/metrics"
	"github.com/intake-api/internal/pkg/crypt"
	"github.com/intake-api/internal/pkg/id"
	"golang.org/x/sync/errgroup"
)

// decryptWorkers bounds the CPU-bound batch decryption in List.
const decryptWorkers = 4

// RecordStore is the durable encrypted-record table.
type RecordStore interface {
	Put(ctx context.Context, rec *domain.QuestionnaireRecord) error
	UpdateData(ctx context.Context, recordID, contactIdentifier, encryptedData string) error
	ListByContact(ctx context.Context, contactIdentifier string) ([]domain.QuestionnaireRecord, error)
}

// Submission is one decrypted questionnaire payload with its metadata.
type Submission struct {
	ID          string          `json:"id"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Data        json.RawMessage `json:"data"`
}

type Service interface {
	// Submit encrypts and stores a new record owned by the session's contact.
	Submit(ctx context.Context, token string, payload json.RawMessage) (*domain.QuestionnaireRecord, error)

	// Update re-encrypts an existing record in place. Only the owning
	// contact's session can touch it.
	Update(ctx context.Context, token, recordID string, payload json.RawMessage) error

	// List returns the session's submissions, newest first. Records that
	// fail to decrypt are logged and omitted, never fatal to the batch.
	List(ctx context.Context, token string) ([]Submission, error)
}

type service struct {
	sessions session.Service
	records  RecordStore
	cipher   *crypt.Cipher
	metrics  *metrics.Metrics
}

func NewService(sessions session.Service, records RecordStore, cipher *crypt.Cipher, m *metrics.Metrics) Service {
	return &service{sessions: sessions, records: records, cipher: cipher, metrics: m}
}

func (s *service) Submit(ctx context.Context, token string, payload json.RawMessage) (*domain.QuestionnaireRecord, error) {
	sess, err := s.sessions.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	enc, err := s.cipher.Encrypt(payload)
	if err != nil {
		return nil, err
	}
	rec := &domain.QuestionnaireRecord{
		RecordID:          id.New(),
		ContactIdentifier: sess.ContactIdentifier,
		EncryptedData:     enc,
		SubmittedAt:       time.Now().UTC(),
	}
	if err := s.records.Put(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *service) Update(ctx context.Context, token, recordID string, payload json.RawMessage) error {
	sess, err := s.sessions.VerifyToken(ctx, token)
	if err != nil {
		return err
	}
	enc, err := s.cipher.Encrypt(payload)
	if err != nil {
		return err
	}
	return s.records.UpdateData(ctx, recordID, sess.ContactIdentifier, enc)
}

func (s *service) List(ctx context.Context, token string) ([]Submission, error) {
	sess, err := s.sessions.VerifyToken(ctx, token)
	if err != nil {
		return nil, err
	}
	rows, err := s.records.ListByContact(ctx, sess.ContactIdentifier)
	if err != nil {
		return nil, err
	}

	// Decrypt independently with bounded concurrency; a broken row is
	// skipped, not fatal. Order is restored by the final sort.
	out := make([]*Submission, len(rows))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(decryptWorkers)
	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			data, err := s.cipher.Decrypt(row.EncryptedData)
			if err != nil {
				slog.Error("skipping undecryptable record", "record_id", row.RecordID, "err", err)
				if s.metrics != nil {
					s.metrics.RecordsDecryptSkip.Inc()
				}
				return nil
			}
			out[i] = &Submission{ID: row.RecordID, SubmittedAt: row.SubmittedAt, Data: data}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	subs := make([]Submission, 0, len(out))
	for _, sub := range out {
		if sub != nil {
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}
