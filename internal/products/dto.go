package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rematter-io/rematter-backend/pkg/db/models"
)

// CreateProductInput captures the fields a seller submits for a new listing.
type CreateProductInput struct {
	Name        string          `json:"name" validate:"required,max=255"`
	Category    string          `json:"category" validate:"required,max=100"`
	Condition   string          `json:"condition" validate:"required,max=100"`
	Description *string         `json:"description,omitempty" validate:"omitempty,max=5000"`
	Image       *string         `json:"image,omitempty" validate:"omitempty,url"`
	Price       decimal.Decimal `json:"price" validate:"required"`
	Quantity    int             `json:"quantity" validate:"min=0"`
}

// UpdateProductInput carries partial updates; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,max=255"`
	Category    *string          `json:"category,omitempty" validate:"omitempty,max=100"`
	Condition   *string          `json:"condition,omitempty" validate:"omitempty,max=100"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=5000"`
	Image       *string          `json:"image,omitempty" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Quantity    *int             `json:"quantity,omitempty" validate:"omitempty,min=0"`
}

// ListFilters describe the browse endpoint's filter knobs.
type ListFilters struct {
	Category *string
	SellerID *uuid.UUID
	Query    string
}

// ProductSummary exposes the fields returned in the browse listing.
type ProductSummary struct {
	ID          uuid.UUID       `json:"id"`
	SellerID    uuid.UUID       `json:"seller_id"`
	SellerName  string          `json:"seller_name,omitempty"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Condition   string          `json:"condition"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description *string         `json:"description,omitempty"`
	Image       *string         `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductList wraps a page of products plus the next page cursor.
type ProductList struct {
	Products   []ProductSummary `json:"products"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

func Summarize(product models.Product) ProductSummary {
	summary := ProductSummary{
		ID:          product.ID,
		SellerID:    product.SellerID,
		Name:        product.Name,
		Category:    product.Category,
		Condition:   product.Condition,
		Price:       product.Price,
		Quantity:    product.Quantity,
		Description: product.Description,
		Image:       product.Image,
		CreatedAt:   product.CreatedAt,
	}
	if product.Seller != nil {
		summary.SellerName = product.Seller.Name
	}
	return summary
}
