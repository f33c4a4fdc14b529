package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/storefront-labs/checkout/internal/clock"
	"github.com/storefront-labs/checkout/internal/domain/challenge"
	domain "github.com/storefront-labs/checkout/internal/domain/order"
	domoutbox "github.com/storefront-labs/checkout/internal/domain/outbox"
	"github.com/storefront-labs/checkout/internal/observability"
	"github.com/storefront-labs/checkout/internal/observability/logctx"
)

const (
	useCaseIssueChallenge = "payment.issue_challenge"
	useCaseConfirm        = "payment.confirm"
	spanPrefix            = "UC."
	publishTimeout        = 300 * time.Millisecond
)

var ErrRepository = errors.New("payment: repository failure")

// Service drives the two-step payment confirmation: issue a short-lived
// passcode for a draft order, then confirm it exactly once. Wrong codes do
// not consume the challenge, so retries are possible until expiry; there is
// deliberately no attempt cap, which leaves the 6-digit space open to brute
// force within the TTL.
type Service struct {
	orders     domain.Repository
	challenges challenge.Store
	clk        clock.Clock
	publisher  domoutbox.Publisher
	ttl        time.Duration
	tel        observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	auditFailed  observability.Counter
}

func NewService(
	orders domain.Repository,
	challenges challenge.Store,
	clk clock.Clock,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	opts ...Option,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	s := &Service{
		orders:       orders,
		challenges:   challenges,
		clk:          clk,
		publisher:    publisher,
		ttl:          challenge.TTL,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", "payment_service")),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
		auditFailed:  tel.Metrics().Counter(observability.MAuditPublishFailed),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type Option func(*Service)

// WithChallengeTTL overrides the default challenge lifetime.
func WithChallengeTTL(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.ttl = d
		}
	}
}

type IssueChallengeResult struct {
	CodeMasked string
	// RawCode exists so an out-of-band delivery channel (or a development
	// client) can carry the code. It must not reach production responses.
	RawCode string
}

// IssueChallenge generates a fresh passcode for an unpaid order owned by
// ownerID, overwriting any previous unconsumed challenge for that order.
func (s *Service) IssueChallenge(ctx context.Context, orderID, ownerID string) (_ *IssueChallengeResult, err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseIssueChallenge),
		observability.F("order_id", orderID),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"IssueChallenge",
		attribute.String("use_case", useCaseIssueChallenge),
		attribute.String("order.id", orderID),
	)
	start := s.clk.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		s.finish(span, logger, start, useCaseIssueChallenge, outcome, statusText, err)
	}()

	ord, err := s.orders.GetOwned(ctx, orderID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			outcome, statusText = "error", "ORDER_NOT_FOUND"
			return nil, domain.ErrNotFound
		}
		outcome, statusText = "error", "REPO_GET_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if ord.Paid {
		outcome, statusText = "error", "ALREADY_PAID"
		return nil, domain.ErrAlreadyPaid
	}

	code, err := challenge.NewCode()
	if err != nil {
		outcome, statusText = "error", "CODE_GENERATION_FAILED"
		return nil, err
	}

	now := s.clk.Now()
	ch := challenge.Challenge{
		OrderID:   orderID,
		Code:      code,
		ExpiresAt: now.Add(s.ttl),
	}
	if putErr := s.challenges.Put(ctx, ch); putErr != nil {
		outcome, statusText = "error", "CHALLENGE_PUT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, putErr)
	}

	span.AddEvent("challenge.issued")
	s.notify(ctx, logger, domain.PaymentInitiatedEvent{OrderID: orderID, OwnerID: ownerID, At: now})

	return &IssueChallengeResult{
		CodeMasked: challenge.Mask(code),
		RawCode:    code,
	}, nil
}

// ConfirmPayment validates the submitted code and marks the order paid
// exactly once. The paid transition is a compare-and-set in the order store;
// of two concurrent confirms with a valid code, one wins and the other
// observes ErrAlreadyPaid.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, ownerID, submittedCode string) (err error) {
	logger := logctx.FromOr(ctx, s.log).With(
		observability.F("use_case", useCaseConfirm),
		observability.F("order_id", orderID),
	)

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"ConfirmPayment",
		attribute.String("use_case", useCaseConfirm),
		attribute.String("order.id", orderID),
	)
	start := s.clk.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		s.finish(span, logger, start, useCaseConfirm, outcome, statusText, err)
	}()

	ord, err := s.orders.GetOwned(ctx, orderID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			outcome, statusText = "error", "ORDER_NOT_FOUND"
			return domain.ErrNotFound
		}
		outcome, statusText = "error", "REPO_GET_FAILED"
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	if ord.Paid {
		outcome, statusText = "error", "ALREADY_PAID"
		return domain.ErrAlreadyPaid
	}

	ch, err := s.challenges.Get(ctx, orderID)
	if err != nil {
		if errors.Is(err, challenge.ErrNoChallenge) {
			outcome, statusText = "error", "NO_CHALLENGE"
			return challenge.ErrNoChallenge
		}
		outcome, statusText = "error", "CHALLENGE_GET_FAILED"
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}

	now := s.clk.Now()
	if ch.Expired(now) {
		// Lazy eviction: delete only if the stored code is still the one we
		// read, so a concurrently reissued challenge survives.
		if _, delErr := s.challenges.CompareAndDelete(ctx, orderID, ch.Code); delErr != nil {
			logger.Warn("challenge_evict_failed", observability.F("error", delErr.Error()))
		}
		outcome, statusText = "error", "CHALLENGE_EXPIRED"
		return challenge.ErrExpired
	}

	// A mismatch keeps the challenge alive so the caller can retry until
	// expiry.
	if submittedCode != ch.Code {
		outcome, statusText = "error", "CODE_MISMATCH"
		return challenge.ErrCodeMismatch
	}

	if err = s.orders.MarkPaid(ctx, orderID, ownerID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlreadyPaid):
			outcome, statusText = "error", "ALREADY_PAID"
			return domain.ErrAlreadyPaid
		case errors.Is(err, domain.ErrNotFound):
			outcome, statusText = "error", "ORDER_NOT_FOUND"
			return domain.ErrNotFound
		default:
			outcome, statusText = "error", "REPO_MARK_PAID_FAILED"
			return fmt.Errorf("%w: %w", ErrRepository, err)
		}
	}

	// Consume the code. Compare-and-delete so a challenge reissued between
	// our read and this point is left in place.
	if _, delErr := s.challenges.CompareAndDelete(ctx, orderID, submittedCode); delErr != nil {
		logger.Warn("challenge_consume_failed", observability.F("error", delErr.Error()))
	}

	span.AddEvent("payment.confirmed")
	s.notify(ctx, logger, domain.PaymentCompletedEvent{OrderID: orderID, OwnerID: ownerID, At: now})

	return nil
}

func (s *Service) finish(
	span trace.Span,
	logger observability.Logger,
	start time.Time,
	useCase, outcome, statusText string,
	err error,
) {
	lat := s.clk.Now().Sub(start).Seconds()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, statusText)
	} else {
		span.SetStatus(codes.Ok, statusText)
	}
	span.End()

	s.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	s.durHistogram.Observe(lat, observability.L("use_case", useCase))

	fields := []observability.Field{
		observability.F("outcome", outcome),
		observability.F("status", statusText),
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	logger.Info("use_case_done", fields...)
}

func (s *Service) notify(ctx context.Context, logger observability.Logger, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if pubErr := s.publisher.Publish(pubCtx, e); pubErr != nil {
		s.auditFailed.Add(1, observability.L("event", e.EventName()))
		logger.Warn("audit_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", pubErr.Error()),
		)
	}
}
