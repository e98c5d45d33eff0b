package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/pkg/db/models"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
)

// ReservationRequest asks for qty units of a single product.
type ReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// Reservation records the vendor and price captured at reservation time.
type Reservation struct {
	ProductID   uuid.UUID
	ProductName string
	SellerID    uuid.UUID
	Qty         int
	UnitPrice   decimal.Decimal
}

// Reserve decrements product stock for every request inside the supplied
// transaction. Requests are processed in ascending product id order so
// concurrent reservations always take row locks in the same sequence.
// The guarded UPDATE only applies when enough stock remains, which makes
// check-and-decrement a single atomic statement; the first shortfall
// fails the whole batch and the surrounding transaction rolls back.
func Reserve(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]Reservation, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle required")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no items to reserve")
	}

	merged, err := mergeRequests(requests)
	if err != nil {
		return nil, err
	}

	reservations := make([]Reservation, 0, len(merged))
	for _, req := range merged {
		res := tx.WithContext(ctx).
			Model(&models.Product{}).
			Where("id = ? AND quantity >= ?", req.ProductID, req.Qty).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", req.Qty))
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserving stock")
		}

		var product models.Product
		if err := tx.WithContext(ctx).First(&product, "id = ?", req.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product not found: %s", req.ProductID))
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading product")
		}

		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, fmt.Sprintf("Insufficient stock for product: %s", product.Name))
		}

		reservations = append(reservations, Reservation{
			ProductID:   product.ID,
			ProductName: product.Name,
			SellerID:    product.SellerID,
			Qty:         req.Qty,
			UnitPrice:   product.Price,
		})
	}

	return reservations, nil
}

// mergeRequests validates quantities, folds duplicate product ids together
// and returns requests in canonical lock order.
func mergeRequests(requests []ReservationRequest) ([]ReservationRequest, error) {
	byProduct := make(map[uuid.UUID]int, len(requests))
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be at least 1 for product %s", req.ProductID))
		}
		byProduct[req.ProductID] += req.Qty
	}

	merged := make([]ReservationRequest, 0, len(byProduct))
	for id, qty := range byProduct {
		merged = append(merged, ReservationRequest{ProductID: id, Qty: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged, nil
}
