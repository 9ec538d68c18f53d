package dto

import "time"

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	SKU      string `json:"sku" validate:"required,min=1,max=100"`
	Name     string `json:"name" validate:"required,min=1,max=200"`
	UnitType string `json:"unit_type"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	SKU       string    `json:"sku"`
	Name      string    `json:"name"`
	UnitType  string    `json:"unit_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}
