package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/internal/orders"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"

	"github.com/rematter-io/rematter-backend/pkg/db/models"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DecideInput carries an admin's decision on a pending transaction.
type DecideInput struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Decision      enums.TransactionStatus
}

// Service defines approval transaction operations.
type Service interface {
	Decide(ctx context.Context, input DecideInput) (*models.Transaction, error)
	ForOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*models.Transaction, error)
}

type service struct {
	repo       Repository
	ordersRepo orders.Repository
	tx         txRunner
}

// NewService builds the transactions service.
func NewService(repo Repository, ordersRepo orders.Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, ordersRepo: ordersRepo, tx: tx}, nil
}

// ForOrder returns the approval transaction attached to an order. Buyers see
// their own orders, sellers orders carrying their products, admins any order.
func (s *service) ForOrder(ctx context.Context, actorID uuid.UUID, actorRole enums.UserRole, orderID uuid.UUID) (*models.Transaction, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}

	allowed := false
	switch actorRole {
	case enums.UserRoleAdmin:
		allowed = true
	case enums.UserRoleBuyer:
		allowed = order.BuyerID == actorID
	case enums.UserRoleSeller:
		allowed, err = s.ordersRepo.SellerHasLines(ctx, order.ID, actorID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking seller lines")
		}
	}
	if !allowed {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	txn, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading transaction")
	}
	return txn, nil
}

// Decide settles a pending approval transaction and cascades the order in
// the same database transaction: approval confirms the order, rejection
// cancels it. A transaction is decided exactly once.
func (s *service) Decide(ctx context.Context, input DecideInput) (*models.Transaction, error) {
	if input.AdminID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.TransactionID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if input.Decision != enums.TransactionStatusApproved && input.Decision != enums.TransactionStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid decision %q", input.Decision))
	}

	var decided *models.Transaction
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ordersRepo := s.ordersRepo.WithTx(tx)

		txn, err := repo.FindByID(ctx, input.TransactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading transaction")
		}
		if txn.Status != enums.TransactionStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("transaction already %s", txn.Status))
		}
		if txn.Order == nil {
			return pkgerrors.New(pkgerrors.CodeDependency, "transaction has no order")
		}

		orderTarget := enums.OrderStatusConfirmed
		if input.Decision == enums.TransactionStatusRejected {
			orderTarget = enums.OrderStatusCancelled
		}
		// A seller may move the order before the admin settles the
		// transaction. When the order is already at the target, or already
		// shipped on an approval, the decision is recorded without touching
		// the order again.
		skipCascade := txn.Order.Status == orderTarget ||
			(input.Decision == enums.TransactionStatusApproved && txn.Order.Status == enums.OrderStatusShipped)
		if !skipCascade {
			if err := orders.ValidateTransition(txn.Order.Status, orderTarget); err != nil {
				return err
			}
		}

		if err := repo.Update(ctx, txn.ID, map[string]any{
			"status":      input.Decision,
			"approved_by": input.AdminID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating transaction")
		}
		// TODO: rejection does not restore reserved stock; needs a
		// compensating inventory release before sellers can rely on it.
		if !skipCascade {
			if err := ordersRepo.UpdateStatus(ctx, txn.OrderID, orderTarget); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
			}
		}

		decided, err = repo.FindByID(ctx, txn.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading decided transaction")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decided, nil
}
