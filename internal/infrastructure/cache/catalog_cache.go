package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
)

const (
	productKeyPrefix   = "catalog:product:"
	warehouseKeyPrefix = "catalog:warehouse:"
)

// CatalogCache decorador read-through del Catalog. Los errores de Redis se registran y la
// lectura cae al catálogo de origen: la caché nunca hace fallar una operación del ledger.
// Los registros inexistentes no se guardan.
type CatalogCache struct {
	next  inventory.Catalog
	store Store
	ttl   time.Duration
	log   zerolog.Logger
}

var _ inventory.Catalog = (*CatalogCache)(nil)

// NewCatalogCache envuelve next con la caché.
func NewCatalogCache(next inventory.Catalog, store Store, ttl time.Duration, log zerolog.Logger) *CatalogCache {
	return &CatalogCache{next: next, store: store, ttl: ttl, log: log}
}

// GetProduct busca en caché y si no está consulta el catálogo y guarda el resultado.
func (c *CatalogCache) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	var p entity.Product
	if c.lookup(ctx, productKeyPrefix+id, &p) {
		return &p, nil
	}
	product, err := c.next.GetProduct(ctx, id)
	if err != nil || product == nil {
		return product, err
	}
	c.save(ctx, productKeyPrefix+id, product)
	return product, nil
}

// GetWarehouse igual que GetProduct para bodegas.
func (c *CatalogCache) GetWarehouse(ctx context.Context, id string) (*entity.Warehouse, error) {
	var w entity.Warehouse
	if c.lookup(ctx, warehouseKeyPrefix+id, &w) {
		return &w, nil
	}
	warehouse, err := c.next.GetWarehouse(ctx, id)
	if err != nil || warehouse == nil {
		return warehouse, err
	}
	c.save(ctx, warehouseKeyPrefix+id, warehouse)
	return warehouse, nil
}

func (c *CatalogCache) lookup(ctx context.Context, key string, dst any) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("caché de catálogo no disponible")
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("entrada de caché corrupta")
		return false
	}
	return true
}

func (c *CatalogCache) save(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("no se pudo guardar en caché de catálogo")
	}
}
