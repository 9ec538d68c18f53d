package inventory

import (
	"context"

	"github.com/jhoicas/inventario-ledger/internal/domain"
	"github.com/jhoicas/inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/inventario-ledger/internal/domain/repository"
)

// RepositoryCatalog implementa Catalog sobre los repositorios de productos y bodegas.
type RepositoryCatalog struct {
	products   repository.ProductRepository
	warehouses repository.WarehouseRepository
}

// NewRepositoryCatalog construye el catálogo.
func NewRepositoryCatalog(products repository.ProductRepository, warehouses repository.WarehouseRepository) *RepositoryCatalog {
	return &RepositoryCatalog{products: products, warehouses: warehouses}
}

var _ Catalog = (*RepositoryCatalog)(nil)

// GetProduct devuelve el producto o nil si no existe.
func (c *RepositoryCatalog) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	return c.products.GetByID(ctx, id)
}

// GetWarehouse devuelve la bodega o nil si no existe.
func (c *RepositoryCatalog) GetWarehouse(ctx context.Context, id string) (*entity.Warehouse, error) {
	return c.warehouses.GetByID(ctx, id)
}

// requireProduct exige que el producto exista y pertenezca a la empresa (si se indica).
// Un producto de otra empresa se reporta igual que uno inexistente.
func requireProduct(ctx context.Context, cat Catalog, companyID, id string) (*entity.Product, error) {
	p, err := cat.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil || (companyID != "" && p.CompanyID != companyID) {
		return nil, &domain.ReferenceError{Kind: domain.RefProduct, ID: id}
	}
	return p, nil
}

// requireWarehouse igual que requireProduct para bodegas.
func requireWarehouse(ctx context.Context, cat Catalog, companyID, id string) (*entity.Warehouse, error) {
	w, err := cat.GetWarehouse(ctx, id)
	if err != nil {
		return nil, err
	}
	if w == nil || (companyID != "" && w.CompanyID != companyID) {
		return nil, &domain.ReferenceError{Kind: domain.RefWarehouse, ID: id}
	}
	return w, nil
}
