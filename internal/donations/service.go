package donations

import (
	"context"
	"time"

	pkgerrors "github.com/solidarityfund/fundraiser-backend/pkg/errors"
	"github.com/solidarityfund/fundraiser-backend/pkg/logger"
	"github.com/solidarityfund/fundraiser-backend/pkg/metrics"
)

const metricSource = "square"

type recordStore interface {
	Upsert(ctx context.Context, rec Record) error
}

type totalsLedger interface {
	Increment(ctx context.Context, teamRef string, amountCents int64) error
}

type countGuard interface {
	CheckAndMark(ctx context.Context, paymentID string) (bool, error)
	Release(ctx context.Context, paymentID string) error
}

// Result classifies how an event was handled. Every value maps to a 200 ack;
// failures come back as errors instead.
type Result string

const (
	ResultCounted       Result = "counted"
	ResultDuplicate     Result = "duplicate"
	ResultIgnored       Result = "ignored"
	ResultSkippedStatus Result = "skipped_status"
	ResultSkippedNoTeam Result = "skipped_no_team"
	ResultSkippedAmount Result = "skipped_amount"
)

// Outcome reports the disposition of one webhook event.
type Outcome struct {
	Result Result
	Reason string
}

type ServiceParams struct {
	Store   recordStore
	Totals  totalsLedger
	Guard   countGuard
	Metrics *metrics.WebhookMetrics
	Logger  *logger.Logger
	// CountApproved admits APPROVED payments into totals (sandbox flows
	// never reach COMPLETED).
	CountApproved bool
	// KeepRaw stores the original event payload on the record. Off in
	// production.
	KeepRaw bool
}

// Service runs the ingest pipeline: parse, filter, store, count.
type Service struct {
	store         recordStore
	totals        totalsLedger
	guard         countGuard
	metrics       *metrics.WebhookMetrics
	logger        *logger.Logger
	countApproved bool
	keepRaw       bool
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	if params.Totals == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "totals ledger required")
	}
	if params.Guard == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "count guard required")
	}
	return &Service{
		store:         params.Store,
		totals:        params.Totals,
		guard:         params.Guard,
		metrics:       params.Metrics,
		logger:        params.Logger,
		countApproved: params.CountApproved,
		keepRaw:       params.KeepRaw,
	}, nil
}

// HandleEvent ingests one raw webhook payload. Re-delivery of the same
// payment id rewrites the record blob (idempotent) and never increments
// totals a second time.
func (s *Service) HandleEvent(ctx context.Context, raw []byte) (*Outcome, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveDuration(metricSource, time.Since(start))
	}()

	event, err := ParseEvent(raw)
	if err != nil {
		s.metrics.IncOutcome(metricSource, "invalid")
		return nil, err
	}

	if !event.IsPayment() {
		s.metrics.IncOutcome(metricSource, string(ResultIgnored))
		return &Outcome{Result: ResultIgnored, Reason: event.Type}, nil
	}

	payment := event.Payment
	if s.logger != nil {
		ctx = s.logger.WithPaymentID(ctx, payment.ID)
	}

	if !s.countableStatus(payment.Status) {
		s.metrics.IncOutcome(metricSource, string(ResultSkippedStatus))
		return &Outcome{Result: ResultSkippedStatus, Reason: "status=" + payment.Status}, nil
	}

	rec := Record{
		ID:          payment.ID,
		TeamRef:     ParseTeamRef(payment.Note),
		AmountCents: payment.AmountCents,
		Currency:    payment.Currency,
		Email:       payment.Email,
		ReceiptURL:  payment.ReceiptURL,
		CreatedAt:   payment.CreatedAt,
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if s.keepRaw {
		rec.Raw = raw
	}
	if s.logger != nil && rec.TeamRef != nil {
		ctx = s.logger.WithTeamRef(ctx, *rec.TeamRef)
	}

	if err := s.store.Upsert(ctx, rec); err != nil {
		s.metrics.IncOutcome(metricSource, "store_failed")
		return nil, err
	}

	if rec.TeamRef == nil {
		s.metrics.IncOutcome(metricSource, string(ResultSkippedNoTeam))
		s.info(ctx, "donation stored without team attribution")
		return &Outcome{Result: ResultSkippedNoTeam, Reason: "no teamRef"}, nil
	}
	if rec.AmountCents <= 0 {
		s.metrics.IncOutcome(metricSource, string(ResultSkippedAmount))
		s.info(ctx, "donation stored with non-positive amount")
		return &Outcome{Result: ResultSkippedAmount, Reason: "non-positive amount"}, nil
	}

	already, err := s.guard.CheckAndMark(ctx, rec.ID)
	if err != nil {
		s.metrics.IncOutcome(metricSource, "guard_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check counted marker")
	}
	if already {
		s.metrics.IncOutcome(metricSource, string(ResultDuplicate))
		s.info(ctx, "duplicate delivery, already counted")
		return &Outcome{Result: ResultDuplicate}, nil
	}

	if err := s.totals.Increment(ctx, *rec.TeamRef, rec.AmountCents); err != nil {
		// Drop the marker so the provider's retry re-runs the increment.
		_ = s.guard.Release(ctx, rec.ID)
		s.metrics.IncOutcome(metricSource, "totals_failed")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "totals update failed")
	}

	s.metrics.IncCounted()
	s.metrics.IncOutcome(metricSource, string(ResultCounted))
	s.info(ctx, "donation counted")
	return &Outcome{Result: ResultCounted}, nil
}

func (s *Service) countableStatus(status string) bool {
	switch status {
	case "COMPLETED":
		return true
	case "APPROVED":
		return s.countApproved
	default:
		return false
	}
}

func (s *Service) info(ctx context.Context, msg string) {
	if s.logger != nil {
		s.logger.Info(ctx, msg)
	}
}
