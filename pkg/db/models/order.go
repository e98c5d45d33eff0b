package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rematter-io/rematter-backend/pkg/enums"
)

// Order is the buyer-owned aggregate created atomically with its items and
// initial transaction. TotalPrice is the sum of the line price snapshots.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	BuyerID     uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null" json:"buyer_id"`
	TotalPrice  decimal.Decimal   `gorm:"column:total_price;type:numeric(10,2);not null" json:"total_price"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	Buyer       *User             `gorm:"foreignKey:BuyerID;constraint:OnDelete:CASCADE" json:"buyer,omitempty"`
	Items       []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	Transaction *Transaction      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"transaction,omitempty"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
