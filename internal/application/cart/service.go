package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/storefront-labs/checkout/internal/clock"
	domcatalog "github.com/storefront-labs/checkout/internal/domain/catalog"
	domain "github.com/storefront-labs/checkout/internal/domain/order"
	domoutbox "github.com/storefront-labs/checkout/internal/domain/outbox"
	"github.com/storefront-labs/checkout/internal/observability"
	"github.com/storefront-labs/checkout/internal/observability/logctx"
)

const (
	useCaseCreateOrder = "cart.create_order"
	useCaseListOrders  = "cart.list_orders"
	spanPrefix         = "UC."
	publishTimeout     = 300 * time.Millisecond
)

var ErrRepository = errors.New("cart: repository failure")

// Service assembles validated carts into draft orders. Stock is validated
// against the catalog snapshot but never decremented; reservation is
// advisory only.
type Service struct {
	orders    domain.Repository
	catalog   domcatalog.Reader
	ids       IDGenerator
	publisher domoutbox.Publisher
	clk       clock.Clock
	tel       observability.Observability

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
	auditFailed  observability.Counter
}

func NewService(
	orders domain.Repository,
	catalogReader domcatalog.Reader,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	clk clock.Clock,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		orders:       orders,
		catalog:      catalogReader,
		ids:          ids,
		publisher:    publisher,
		clk:          clk,
		tel:          tel,
		log:          tel.Logger().With(observability.F("component", "cart_service")),
		reqCounter:   tel.Metrics().Counter(observability.MUsecaseRequests),
		durHistogram: tel.Metrics().Histogram(observability.MUsecaseDuration),
		auditFailed:  tel.Metrics().Counter(observability.MAuditPublishFailed),
	}
}

// CreateOrder validates every line against the catalog, computes the total
// from the current price snapshot, and persists a draft order with Paid=false.
// On any failure nothing is persisted.
func (s *Service) CreateOrder(ctx context.Context, ownerID string, items []domain.LineItem) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseCreateOrder))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseCreateOrder),
		attribute.String("order.owner_id", ownerID),
		attribute.Int("order.item_count", len(items)),
	)
	start := s.clk.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := s.clk.Now().Sub(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.reqCounter.Add(1,
			observability.L("use_case", useCaseCreateOrder),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat, observability.L("use_case", useCaseCreateOrder))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if ownerID == "" {
		outcome, statusText = "error", "OWNER_ID_REQUIRED"
		return nil, newValidation("owner id is required")
	}
	if len(items) == 0 {
		outcome, statusText = "error", "ITEMS_EMPTY"
		return nil, newValidation("at least one item is required")
	}

	// Validate every item before any persistence; the price snapshot taken
	// here is the amount of record even if the catalog changes later.
	var amountCents int64
	for _, it := range items {
		if it.ProductID == "" {
			outcome, statusText = "error", "PRODUCT_ID_REQUIRED"
			return nil, newValidation("product id is required")
		}
		if it.Quantity <= 0 {
			outcome, statusText = "error", "QUANTITY_INVALID"
			return nil, newValidation("quantity must be greater than zero for %s", it.ProductID)
		}

		product, lookupErr := s.catalog.Get(ctx, it.ProductID)
		if lookupErr != nil {
			if errors.Is(lookupErr, domcatalog.ErrNotFound) {
				outcome, statusText = "error", "PRODUCT_UNKNOWN"
				return nil, newValidation("unknown product: %s", it.ProductID)
			}
			outcome, statusText = "error", "CATALOG_LOOKUP_FAILED"
			return nil, fmt.Errorf("%w: %w", ErrRepository, lookupErr)
		}
		if it.Quantity > product.Stock {
			outcome, statusText = "error", "INSUFFICIENT_STOCK"
			return nil, &InsufficientStockError{
				ProductID: it.ProductID,
				Requested: it.Quantity,
				Available: product.Stock,
			}
		}

		amountCents += product.PriceCents * int64(it.Quantity)
	}

	entity, derr := domain.New(s.ids.NewID(), ownerID, items, amountCents, s.clk.Now())
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("cart: construct order: %w", derr)
	}

	if insertErr := s.orders.Insert(ctx, entity); insertErr != nil {
		outcome, statusText = "error", "REPO_INSERT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, insertErr)
	}

	span.AddEvent("order.created")
	span.SetAttributes(attribute.String("order.id", entity.ID))

	s.notify(ctx, logger, domain.NewCartSavedEvent(entity, s.clk.Now()))

	return entity, nil
}

// ListOrders returns the owner's orders newest first. Read-only.
func (s *Service) ListOrders(ctx context.Context, ownerID string) (_ []*domain.Order, err error) {
	logger := logctx.FromOr(ctx, s.log).With(observability.F("use_case", useCaseListOrders))

	ctx, span := s.tel.Tracer().Start(ctx, spanPrefix+"ListOrders",
		attribute.String("use_case", useCaseListOrders),
		attribute.String("order.owner_id", ownerID),
	)
	start := s.clk.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := s.clk.Now().Sub(start).Seconds()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		s.reqCounter.Add(1,
			observability.L("use_case", useCaseListOrders),
			observability.L("outcome", outcome),
		)
		s.durHistogram.Observe(lat, observability.L("use_case", useCaseListOrders))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	if ownerID == "" {
		outcome, statusText = "error", "OWNER_ID_REQUIRED"
		return nil, newValidation("owner id is required")
	}

	orders, listErr := s.orders.ListByOwner(ctx, ownerID)
	if listErr != nil {
		outcome, statusText = "error", "REPO_LIST_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, listErr)
	}

	return orders, nil
}

// notify emits an audit event. Audit delivery is best-effort: failures are
// logged and counted, never surfaced to the caller.
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
