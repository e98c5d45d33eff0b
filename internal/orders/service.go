package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/internal/inventory"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.Reservation, error)
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []inventory.ReservationRequest) ([]inventory.Reservation, error) {
	return inventory.Reserve(ctx, tx, requests)
}

// Service defines order placement and lifecycle operations.
type Service interface {
	PlaceOrder(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*models.Order, error)
	GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*models.Order, error)
	ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error)
	UpdateStatus(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID, rawStatus string) (*models.Order, error)
}

type service struct {
	repo        Repository
	tx          txRunner
	reservation reservationRunner
}

// NewService builds the orders service.
func NewService(repo Repository, tx txRunner, reservation reservationRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if reservation == nil {
		reservation = reservationEngine{}
	}
	return &service{repo: repo, tx: tx, reservation: reservation}, nil
}

// PlaceOrder reserves stock for every line and creates the order, its items
// and a pending approval transaction in one database transaction. A stock
// shortfall on any line rolls the whole order back.
func (s *service) PlaceOrder(ctx context.Context, buyerID uuid.UUID, input PlaceOrderInput) (*models.Order, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order contains no items")
	}

	requests := make([]inventory.ReservationRequest, len(input.Items))
	for i, item := range input.Items {
		requests[i] = inventory.ReservationRequest{ProductID: item.ProductID, Qty: item.Quantity}
	}

	var created *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reservations, err := s.reservation.Reserve(ctx, tx, requests)
		if err != nil {
			return err
		}

		total := decimal.Zero
		for _, res := range reservations {
			total = total.Add(res.UnitPrice.Mul(decimal.NewFromInt(int64(res.Qty))))
		}

		order, err := repo.Create(ctx, &models.Order{
			BuyerID:    buyerID,
			TotalPrice: total,
			Status:     enums.OrderStatusPending,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order")
		}

		items := make([]models.OrderItem, 0, len(reservations))
		for _, res := range reservations {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: res.ProductID,
				Quantity:  res.Qty,
				Price:     res.UnitPrice,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating order items")
		}

		if _, err := repo.CreateTransaction(ctx, &models.Transaction{
			OrderID: order.ID,
			Status:  enums.TransactionStatusPending,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "creating transaction")
		}

		created, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading created order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *service) GetOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}

	allowed, err := s.actorCanSee(ctx, order, actorID, actorRole)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	return order, nil
}

func (s *service) actorCanSee(ctx context.Context, order *models.Order, actorID uuid.UUID, actorRole enums.UserRole) (bool, error) {
	switch actorRole {
	case enums.UserRoleAdmin:
		return true, nil
	case enums.UserRoleBuyer:
		return order.BuyerID == actorID, nil
	case enums.UserRoleSeller:
		has, err := s.repo.SellerHasLines(ctx, order.ID, actorID)
		if err != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking seller lines")
		}
		return has, nil
	default:
		return false, nil
	}
}

func (s *service) ListBuyerOrders(ctx context.Context, buyerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if buyerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByBuyer(ctx, buyerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing buyer orders")
	}
	return list, nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params, filters OrderFilters) (*OrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListBySeller(ctx, sellerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing seller orders")
	}
	return list, nil
}

// UpdateStatus moves an order along its lifecycle. Sellers may only touch
// orders that contain their products; admins may touch any order. The
// status is re-checked inside the transaction so concurrent updates cannot
// skip a lifecycle step.
func (s *service) UpdateStatus(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID, rawStatus string) (*models.Order, error) {
	if actorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	target, err := NormalizeDecision(rawStatus)
	if err != nil {
		return nil, err
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}

		switch actorRole {
		case enums.UserRoleAdmin:
		case enums.UserRoleSeller:
			has, err := repo.SellerHasLines(ctx, order.ID, actorID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking seller lines")
			}
			if !has {
				return pkgerrors.New(pkgerrors.CodeForbidden, "order does not contain seller products")
			}
		default:
			return pkgerrors.New(pkgerrors.CodeForbidden, "only sellers and admins can update order status")
		}

		if err := ValidateTransition(order.Status, target); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, order.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}

		updated, err = repo.FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading updated order")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
