package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/rematter-io/rematter-backend/pkg/enums"
)

// Transaction is the admin approval record tied 1:1 to an order. It is
// created as pending alongside the order and decided exactly once.
type Transaction struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	OrderID    uuid.UUID               `gorm:"column:order_id;type:uuid;not null;uniqueIndex" json:"order_id"`
	Status     enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'" json:"status"`
	ApprovedBy *uuid.UUID              `gorm:"column:approved_by;type:uuid" json:"approved_by,omitempty"`
	Order      *Order                  `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time               `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
