package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront-labs/checkout/internal/clock"
	domain "github.com/storefront-labs/checkout/internal/domain/catalog"
	domoutbox "github.com/storefront-labs/checkout/internal/domain/outbox"
	"github.com/storefront-labs/checkout/internal/observability"
	"github.com/storefront-labs/checkout/internal/observability/logctx"
)

const publishTimeout = 300 * time.Millisecond

var ErrRepository = errors.New("catalog: repository failure")

type IDGenerator interface {
	NewID() string
}

// Service exposes catalog administration. The checkout core only reads the
// catalog; these write paths exist for storefront management.
type Service struct {
	repo      domain.Repository
	ids       IDGenerator
	publisher domoutbox.Publisher
	clk       clock.Clock
	log       observability.Logger
}

func NewService(
	repo domain.Repository,
	ids IDGenerator,
	publisher domoutbox.Publisher,
	clk clock.Clock,
	tel observability.Observability,
) *Service {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Service{
		repo:      repo,
		ids:       ids,
		publisher: publisher,
		clk:       clk,
		log:       tel.Logger().With(observability.F("component", "catalog_service")),
	}
}

func (s *Service) List(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	return products, nil
}

func (s *Service) Get(ctx context.Context, productID string) (*domain.Product, error) {
	return s.repo.Get(ctx, productID)
}

type CreateProductInput struct {
	ActorID     string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
}

func (s *Service) Create(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	product, err := domain.New(s.ids.NewID(), in.Name, in.Description, in.PriceCents, in.Stock, s.clk.Now())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, product); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	s.notify(ctx, domain.ProductEvent{
		Name:      domain.EventProductCreated,
		ProductID: product.ID,
		ActorID:   in.ActorID,
		At:        s.clk.Now(),
	})
	return product, nil
}

func (s *Service) Update(ctx context.Context, actorID, productID string, patch domain.ProductPatch) (*domain.Product, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	product, err := s.repo.Update(ctx, productID, patch)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}
	s.notify(ctx, domain.ProductEvent{
		Name:      domain.EventProductUpdated,
		ProductID: productID,
		ActorID:   actorID,
		At:        s.clk.Now(),
	})
	return product, nil
}

func (s *Service) Delete(ctx context.Context, actorID, productID string) error {
	if err := s.repo.Delete(ctx, productID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: %w", ErrRepository, err)
	}
	s.notify(ctx, domain.ProductEvent{
		Name:      domain.EventProductDeleted,
		ProductID: productID,
		ActorID:   actorID,
		At:        s.clk.Now(),
	})
	return nil
}

func (s *Service) notify(ctx context.Context, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(pubCtx, e); err != nil {
		logctx.FromOr(ctx, s.log).Warn("audit_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}
