package admin

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/internal/orders"
	"github.com/rematter-io/rematter-backend/internal/users"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/pagination"
)

// Stats is the admin dashboard snapshot.
type Stats struct {
	UsersByRole         map[enums.UserRole]int64    `json:"users_by_role"`
	OrdersByStatus      map[enums.OrderStatus]int64 `json:"orders_by_status"`
	ProductCount        int64                       `json:"product_count"`
	PendingTransactions int64                       `json:"pending_transactions"`
	ConfirmedRevenue    decimal.Decimal             `json:"confirmed_revenue"`
}

// Service exposes the admin panel read operations.
type Service interface {
	Stats(ctx context.Context) (*Stats, error)
	ListUsers(ctx context.Context, params pagination.Params, role *enums.UserRole) (*users.UserList, error)
	ListOrders(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error)
}

type service struct {
	db         *gorm.DB
	usersRepo  *users.Repository
	ordersRepo orders.Repository
}

// NewService builds the admin service.
func NewService(db *gorm.DB, usersRepo *users.Repository, ordersRepo orders.Repository) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	if usersRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{db: db, usersRepo: usersRepo, ordersRepo: ordersRepo}, nil
}

// Stats aggregates marketplace counts. ConfirmedRevenue sums the totals of
// confirmed and shipped orders, the ones an admin has approved.
func (s *service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		OrdersByStatus:   map[enums.OrderStatus]int64{},
		ConfirmedRevenue: decimal.Zero,
	}

	usersByRole, err := s.usersRepo.CountByRole(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting users")
	}
	stats.UsersByRole = usersByRole

	type statusCount struct {
		Status enums.OrderStatus
		Count  int64
	}
	var orderRows []statusCount
	err = s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&orderRows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting orders")
	}
	for _, row := range orderRows {
		stats.OrdersByStatus[row.Status] = row.Count
	}

	err = s.db.WithContext(ctx).
		Model(&models.Product{}).
		Count(&stats.ProductCount).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting products")
	}

	err = s.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("status = ?", enums.TransactionStatusPending).
		Count(&stats.PendingTransactions).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting pending transactions")
	}

	var revenue struct {
		Total decimal.Decimal
	}
	err = s.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total_price), 0) AS total").
		Where("status IN ?", []enums.OrderStatus{enums.OrderStatusConfirmed, enums.OrderStatusShipped}).
		Scan(&revenue).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "summing revenue")
	}
	stats.ConfirmedRevenue = revenue.Total

	return stats, nil
}

func (s *service) ListUsers(ctx context.Context, params pagination.Params, role *enums.UserRole) (*users.UserList, error) {
	list, err := s.usersRepo.List(ctx, params, role)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing users")
	}
	return list, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters orders.OrderFilters) (*orders.OrderList, error) {
	list, err := s.ordersRepo.ListAll(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing orders")
	}
	return list, nil
}
