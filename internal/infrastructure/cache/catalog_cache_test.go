package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/infrastructure/cache"
)

type mapStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failGet {
		return nil, false, errors.New("redis caído")
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

type countingCatalog struct {
	products   map[string]*entity.Product
	warehouses map[string]*entity.Warehouse
	calls      int
}

func (c *countingCatalog) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	c.calls++
	return c.products[id], nil
}

func (c *countingCatalog) GetWarehouse(_ context.Context, id string) (*entity.Warehouse, error) {
	c.calls++
	return c.warehouses[id], nil
}

func TestCatalogCache_ReadThrough(t *testing.T) {
	src := &countingCatalog{
		products:   map[string]*entity.Product{"p1": {ID: "p1", CompanyID: "c1", SKU: "SKU-1", UnitType: "UND"}},
		warehouses: map[string]*entity.Warehouse{"w1": {ID: "w1", CompanyID: "c1", Name: "Principal"}},
	}
	c := cache.NewCatalogCache(src, newMapStore(), time.Minute, zerolog.Nop())
	ctx := context.Background()

	p, err := c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, p)
	p, err = c.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "SKU-1", p.SKU)
	assert.Equal(t, "c1", p.CompanyID)

	w, err := c.GetWarehouse(ctx, "w1")
	require.NoError(t, err)
	_, err = c.GetWarehouse(ctx, "w1")
	require.NoError(t, err)
	assert.Equal(t, "Principal", w.Name)

	assert.Equal(t, 2, src.calls, "la segunda lectura de cada registro sale de la caché")
}

func TestCatalogCache_MissIsNotCached(t *testing.T) {
	src := &countingCatalog{products: map[string]*entity.Product{}}
	c := cache.NewCatalogCache(src, newMapStore(), time.Minute, zerolog.Nop())

	p, err := c.GetProduct(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, p)

	src.products["nope"] = &entity.Product{ID: "nope"}
	p, err = c.GetProduct(context.Background(), "nope")
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestCatalogCache_StoreFailureFallsBack(t *testing.T) {
	store := newMapStore()
	store.failGet = true
	src := &countingCatalog{products: map[string]*entity.Product{"p1": {ID: "p1"}}}
	c := cache.NewCatalogCache(src, store, time.Minute, zerolog.Nop())

	p, err := c.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
}
