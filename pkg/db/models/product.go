package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a seller-owned listing of reused material.
// Quantity is decremented only inside a reservation transaction and never
// drops below zero.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SellerID    uuid.UUID       `gorm:"column:seller_id;type:uuid;not null" json:"seller_id"`
	Name        string          `gorm:"column:name;not null" json:"name"`
	Category    string          `gorm:"column:category;not null" json:"category"`
	Condition   string          `gorm:"column:condition;not null" json:"condition"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null" json:"price"`
	Quantity    int             `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Description *string         `gorm:"column:description" json:"description,omitempty"`
	Image       *string         `gorm:"column:image" json:"image,omitempty"`
	Seller      *User           `gorm:"foreignKey:SellerID;constraint:OnDelete:CASCADE" json:"seller,omitempty"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
