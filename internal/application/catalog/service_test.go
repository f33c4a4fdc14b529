package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/storefront-labs/checkout/internal/clock"
	domain "github.com/storefront-labs/checkout/internal/domain/catalog"
	"github.com/storefront-labs/checkout/internal/infrastructure/memory"
)

type staticIDs struct{ id string }

func (s staticIDs) NewID() string { return s.id }

func TestService_CRUD(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	newSvc := func(id string) (*Service, *memory.CatalogRepository) {
		repo := memory.NewCatalogRepository()
		return NewService(repo, staticIDs{id: id}, nil, clock.NewFixed(now), nil), repo
	}

	t.Run("create and get", func(t *testing.T) {
		svc, _ := newSvc("prod-1")

		p, err := svc.Create(context.Background(), CreateProductInput{
			ActorID: "admin-1", Name: "Mug", Description: "ceramic", PriceCents: 500, Stock: 10,
		})
		require.NoError(t, err)
		require.Equal(t, "prod-1", p.ID)

		got, err := svc.Get(context.Background(), "prod-1")
		require.NoError(t, err)
		require.Equal(t, int64(500), got.PriceCents)
	})

	t.Run("create validates input", func(t *testing.T) {
		svc, _ := newSvc("prod-1")

		_, err := svc.Create(context.Background(), CreateProductInput{ActorID: "a", Name: "", PriceCents: 1, Stock: 1})
		require.ErrorIs(t, err, domain.ErrInvalidName)

		_, err = svc.Create(context.Background(), CreateProductInput{ActorID: "a", Name: "x", PriceCents: -1, Stock: 1})
		require.ErrorIs(t, err, domain.ErrInvalidPrice)

		_, err = svc.Create(context.Background(), CreateProductInput{ActorID: "a", Name: "x", PriceCents: 1, Stock: -1})
		require.ErrorIs(t, err, domain.ErrInvalidStock)
	})

	t.Run("update applies only set fields", func(t *testing.T) {
		svc, _ := newSvc("prod-1")
		_, err := svc.Create(context.Background(), CreateProductInput{
			ActorID: "admin-1", Name: "Mug", Description: "ceramic", PriceCents: 500, Stock: 10,
		})
		require.NoError(t, err)

		price := int64(750)
		updated, err := svc.Update(context.Background(), "admin-1", "prod-1", domain.ProductPatch{PriceCents: &price})
		require.NoError(t, err)
		require.Equal(t, int64(750), updated.PriceCents)
		require.Equal(t, "Mug", updated.Name)
		require.Equal(t, 10, updated.Stock)
	})

	t.Run("update rejects empty and invalid patches", func(t *testing.T) {
		svc, _ := newSvc("prod-1")
		_, err := svc.Create(context.Background(), CreateProductInput{
			ActorID: "admin-1", Name: "Mug", PriceCents: 500, Stock: 10,
		})
		require.NoError(t, err)

		_, err = svc.Update(context.Background(), "admin-1", "prod-1", domain.ProductPatch{})
		require.ErrorIs(t, err, domain.ErrEmptyPatch)

		bad := int64(-5)
		_, err = svc.Update(context.Background(), "admin-1", "prod-1", domain.ProductPatch{PriceCents: &bad})
		require.ErrorIs(t, err, domain.ErrInvalidPrice)
	})

	t.Run("update and delete unknown product", func(t *testing.T) {
		svc, _ := newSvc("prod-1")

		price := int64(1)
		_, err := svc.Update(context.Background(), "admin-1", "ghost", domain.ProductPatch{PriceCents: &price})
		require.ErrorIs(t, err, domain.ErrNotFound)

		err = svc.Delete(context.Background(), "admin-1", "ghost")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete removes the product", func(t *testing.T) {
		svc, repo := newSvc("prod-1")
		_, err := svc.Create(context.Background(), CreateProductInput{
			ActorID: "admin-1", Name: "Mug", PriceCents: 500, Stock: 10,
		})
		require.NoError(t, err)

		require.NoError(t, svc.Delete(context.Background(), "admin-1", "prod-1"))
		_, err = repo.Get(context.Background(), "prod-1")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})
}
