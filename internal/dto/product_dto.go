package dto

import "github.com/shopspring/decimal"

// ProductFilter is bound from the query string of GET /v1/productos.
type ProductFilter struct {
	Search          string `form:"buscar"`
	IncludeInactive bool   `form:"inactivos"`
	Page            int    `form:"page,default=1"    validate:"min=1"`
	Limit           int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type CreateProductRequest struct {
	Code         string          `json:"code"  validate:"required,min=1"`
	Name         string          `json:"name"  validate:"required,min=2"`
	Price        decimal.Decimal `json:"price" validate:"required"`
	IsReturnable bool            `json:"is_returnable"`
}

type UpdateProductRequest struct {
	Name         *string          `json:"name" validate:"omitempty,min=2"`
	Price        *decimal.Decimal `json:"price"`
	IsReturnable *bool            `json:"is_returnable"`
}

type ProductResponse struct {
	ID           string          `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	IsReturnable bool            `json:"is_returnable"`
	Active       bool            `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
