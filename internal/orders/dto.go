package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
)

// OrderLineInput is one requested product line of a new order.
type OrderLineInput struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

// PlaceOrderInput carries everything needed to place an order.
type PlaceOrderInput struct {
	Items []OrderLineInput `json:"items" validate:"required,min=1,dive"`
}

// OrderFilters describe the inputs supported by order listings.
type OrderFilters struct {
	Status   *enums.OrderStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OrderItemSummary is one line of an order as returned by listings.
type OrderItemSummary struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderSummary exposes the aggregated fields returned in order lists.
type OrderSummary struct {
	ID                uuid.UUID               `json:"id"`
	BuyerID           uuid.UUID               `json:"buyer_id"`
	BuyerName         string                  `json:"buyer_name,omitempty"`
	Status            enums.OrderStatus       `json:"status"`
	TransactionStatus enums.TransactionStatus `json:"transaction_status,omitempty"`
	TotalPrice        decimal.Decimal         `json:"total_price"`
	TotalItems        int                     `json:"total_items"`
	Items             []OrderItemSummary      `json:"items"`
	CreatedAt         time.Time               `json:"created_at"`
}

// OrderList wraps a page of orders plus the next page cursor.
type OrderList struct {
	Orders     []OrderSummary `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func Summarize(order models.Order) OrderSummary {
	summary := OrderSummary{
		ID:         order.ID,
		BuyerID:    order.BuyerID,
		Status:     order.Status,
		TotalPrice: order.TotalPrice,
		CreatedAt:  order.CreatedAt,
	}
	if order.Buyer != nil {
		summary.BuyerName = order.Buyer.Name
	}
	if order.Transaction != nil {
		summary.TransactionStatus = order.Transaction.Status
	}
	summary.Items = make([]OrderItemSummary, 0, len(order.Items))
	for _, item := range order.Items {
		line := OrderItemSummary{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if item.Product != nil {
			line.ProductName = item.Product.Name
		}
		summary.TotalItems += item.Quantity
		summary.Items = append(summary.Items, line)
	}
	return summary
}
