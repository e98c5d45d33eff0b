package admin

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/internal/orders"
	"github.com/rematter-io/rematter-backend/internal/users"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	"github.com/rematter-io/rematter-backend/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()

	dsn := "file:admin_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Transaction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	svc, err := NewService(db, users.NewRepository(db), orders.NewRepository(db))
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, db
}

func seedUser(t *testing.T, db *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		Name:         "User " + uuid.NewString()[:8],
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedOrder(t *testing.T, db *gorm.DB, buyerID uuid.UUID, total string, status enums.OrderStatus, txnStatus enums.TransactionStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		BuyerID:    buyerID,
		TotalPrice: decimal.RequireFromString(total),
		Status:     status,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	txn := &models.Transaction{OrderID: order.ID, Status: txnStatus}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}
	return order
}

func TestStats(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	seedUser(t, db, enums.UserRoleBuyer)
	seedUser(t, db, enums.UserRoleAdmin)

	product := &models.Product{
		SellerID:  seller.ID,
		Name:      "Reclaimed oak beams",
		Category:  "timber",
		Condition: "used",
		Price:     decimal.RequireFromString("12.50"),
		Quantity:  5,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	seedOrder(t, db, buyer.ID, "100.00", enums.OrderStatusPending, enums.TransactionStatusPending)
	seedOrder(t, db, buyer.ID, "40.00", enums.OrderStatusConfirmed, enums.TransactionStatusApproved)
	seedOrder(t, db, buyer.ID, "60.00", enums.OrderStatusShipped, enums.TransactionStatusApproved)
	seedOrder(t, db, buyer.ID, "25.00", enums.OrderStatusCancelled, enums.TransactionStatusRejected)

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}

	if stats.UsersByRole[enums.UserRoleBuyer] != 2 {
		t.Fatalf("expected 2 buyers, got %d", stats.UsersByRole[enums.UserRoleBuyer])
	}
	if stats.UsersByRole[enums.UserRoleAdmin] != 1 {
		t.Fatalf("expected 1 admin, got %d", stats.UsersByRole[enums.UserRoleAdmin])
	}
	if stats.ProductCount != 1 {
		t.Fatalf("expected 1 product, got %d", stats.ProductCount)
	}
	if stats.OrdersByStatus[enums.OrderStatusPending] != 1 || stats.OrdersByStatus[enums.OrderStatusCancelled] != 1 {
		t.Fatalf("unexpected order counts %+v", stats.OrdersByStatus)
	}
	if stats.PendingTransactions != 1 {
		t.Fatalf("expected 1 pending transaction, got %d", stats.PendingTransactions)
	}
	if !stats.ConfirmedRevenue.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("expected revenue 100.00, got %s", stats.ConfirmedRevenue)
	}
}

func TestListUsersByRole(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	seedUser(t, db, enums.UserRoleBuyer)
	seedUser(t, db, enums.UserRoleSeller)
	seedUser(t, db, enums.UserRoleSeller)

	sellerRole := enums.UserRoleSeller
	list, err := svc.ListUsers(ctx, pagination.Params{}, &sellerRole)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(list.Users) != 2 {
		t.Fatalf("expected 2 sellers, got %d", len(list.Users))
	}
	for _, user := range list.Users {
		if user.Role != enums.UserRoleSeller {
			t.Fatalf("unexpected role %s", user.Role)
		}
	}
}

func TestListOrdersAcrossBuyers(t *testing.T) {
	t.Parallel()

	svc, db := newTestService(t)
	ctx := context.Background()

	buyerA := seedUser(t, db, enums.UserRoleBuyer)
	buyerB := seedUser(t, db, enums.UserRoleBuyer)
	seedOrder(t, db, buyerA.ID, "10.00", enums.OrderStatusPending, enums.TransactionStatusPending)
	seedOrder(t, db, buyerB.ID, "20.00", enums.OrderStatusPending, enums.TransactionStatusPending)

	list, err := svc.ListOrders(ctx, pagination.Params{}, orders.OrderFilters{})
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(list.Orders) != 2 {
		t.Fatalf("expected all orders, got %d", len(list.Orders))
	}
}
