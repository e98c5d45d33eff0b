package transactions

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/internal/orders"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db      *gorm.DB
	svc     Service
	admin   *models.User
	order   *models.Order
	txn     *models.Transaction
	product *models.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:transactions_" + uuid.NewString() + "?mode=memory&cache=shared"
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

	buyer := &models.User{Name: "Buyer", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: enums.UserRoleBuyer}
	seller := &models.User{Name: "Seller", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: enums.UserRoleSeller}
	admin := &models.User{Name: "Admin", Email: uuid.NewString() + "@example.com", PasswordHash: "x", Role: enums.UserRoleAdmin}
	for _, user := range []*models.User{buyer, seller, admin} {
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	product := &models.Product{
		SellerID:  seller.ID,
		Name:      "Reclaimed oak beams",
		Category:  "materials",
		Condition: "used",
		Price:     decimal.RequireFromString("12.50"),
		Quantity:  3, // two already reserved by the order below
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	order := &models.Order{
		BuyerID:    buyer.ID,
		TotalPrice: decimal.RequireFromString("25.00"),
		Status:     enums.OrderStatusPending,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	item := &models.OrderItem{OrderID: order.ID, ProductID: product.ID, Quantity: 2, Price: product.Price}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}
	txn := &models.Transaction{OrderID: order.ID, Status: enums.TransactionStatusPending}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("seed transaction: %v", err)
	}

	svc, err := NewService(NewRepository(db), orders.NewRepository(db), gormTxRunner{db: db})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	return &fixture{db: db, svc: svc, admin: admin, order: order, txn: txn, product: product}
}

func TestDecideApprovalConfirmsOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	decided, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusApproved,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.TransactionStatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}
	if decided.ApprovedBy == nil || *decided.ApprovedBy != f.admin.ID {
		t.Fatalf("expected approver recorded, got %v", decided.ApprovedBy)
	}

	var order models.Order
	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed order, got %s", order.Status)
	}
}

func TestDecideRejectionCancelsOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	decided, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusRejected,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.TransactionStatusRejected {
		t.Fatalf("expected rejected, got %s", decided.Status)
	}

	var order models.Order
	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled order, got %s", order.Status)
	}

	// reserved stock stays reserved after rejection
	var product models.Product
	if err := f.db.First(&product, "id = ?", f.product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if product.Quantity != 3 {
		t.Fatalf("stock should be unchanged, got %d", product.Quantity)
	}
}

func TestDecideIsOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusApproved,
	}); err != nil {
		t.Fatalf("first decide: %v", err)
	}

	_, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusRejected,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict on second decision, got %v", err)
	}
}

func TestDecideCancelledOrderConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// seller cancelled the order before the admin acted
	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	_, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusApproved,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}

	var txn models.Transaction
	if err := f.db.First(&txn, "id = ?", f.txn.ID).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.Status != enums.TransactionStatusPending {
		t.Fatalf("transaction must stay pending, got %s", txn.Status)
	}
}

func TestDecideApprovalOfConfirmedOrderSettles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	// seller confirmed the order before the admin acted
	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusConfirmed).Error; err != nil {
		t.Fatalf("confirm order: %v", err)
	}

	decided, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusApproved,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.TransactionStatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}

	var order models.Order
	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusConfirmed {
		t.Fatalf("order should stay confirmed, got %s", order.Status)
	}
}

func TestDecideApprovalOfShippedOrderSettles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusShipped).Error; err != nil {
		t.Fatalf("ship order: %v", err)
	}

	decided, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusApproved,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.TransactionStatusApproved {
		t.Fatalf("expected approved, got %s", decided.Status)
	}

	var order models.Order
	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}
	if order.Status != enums.OrderStatusShipped {
		t.Fatalf("order should stay shipped, got %s", order.Status)
	}
}

func TestDecideRejectionOfCancelledOrderSettles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if err := f.db.Model(&models.Order{}).Where("id = ?", f.order.ID).
		Update("status", enums.OrderStatusCancelled).Error; err != nil {
		t.Fatalf("cancel order: %v", err)
	}

	decided, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusRejected,
	})
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != enums.TransactionStatusRejected {
		t.Fatalf("expected rejected, got %s", decided.Status)
	}
}

func TestForOrderVisibility(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	var order models.Order
	if err := f.db.First(&order, "id = ?", f.order.ID).Error; err != nil {
		t.Fatalf("load order: %v", err)
	}

	txn, err := f.svc.ForOrder(ctx, order.BuyerID, enums.UserRoleBuyer, f.order.ID)
	if err != nil {
		t.Fatalf("buyer lookup: %v", err)
	}
	if txn.ID != f.txn.ID || txn.Status != enums.TransactionStatusPending {
		t.Fatalf("unexpected transaction: %+v", txn)
	}

	if _, err := f.svc.ForOrder(ctx, f.product.SellerID, enums.UserRoleSeller, f.order.ID); err != nil {
		t.Fatalf("seller with lines lookup: %v", err)
	}
	if _, err := f.svc.ForOrder(ctx, f.admin.ID, enums.UserRoleAdmin, f.order.ID); err != nil {
		t.Fatalf("admin lookup: %v", err)
	}

	_, err = f.svc.ForOrder(ctx, uuid.New(), enums.UserRoleBuyer, f.order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	_, err = f.svc.ForOrder(ctx, f.admin.ID, enums.UserRoleAdmin, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown order, got %v", err)
	}
}

func TestDecideValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Decide(ctx, DecideInput{
		TransactionID: f.txn.ID,
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusPending,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	_, err = f.svc.Decide(ctx, DecideInput{
		TransactionID: uuid.New(),
		AdminID:       f.admin.ID,
		Decision:      enums.TransactionStatusApproved,
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
