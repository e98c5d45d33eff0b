package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

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

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db), gormTxRunner{db: db}, nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestPlaceOrderCreatesPendingOrder(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	beams := seedProduct(t, db, seller.ID, "Reclaimed oak beams", "12.50", 5)
	bricks := seedProduct(t, db, seller.ID, "Salvaged bricks", "0.80", 200)

	svc := newTestService(t, db)
	order, err := svc.PlaceOrder(ctx, buyer.ID, PlaceOrderInput{Items: []OrderLineInput{
		{ProductID: beams.ID, Quantity: 2},
		{ProductID: bricks.ID, Quantity: 100},
	}})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}
	if !order.TotalPrice.Equal(decimal.RequireFromString("105.00")) {
		t.Fatalf("unexpected total %s", order.TotalPrice)
	}
	if len(order.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(order.Items))
	}
	if order.Transaction == nil || order.Transaction.Status != enums.TransactionStatusPending {
		t.Fatalf("expected pending transaction, got %+v", order.Transaction)
	}

	var gotBeams models.Product
	if err := db.First(&gotBeams, "id = ?", beams.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if gotBeams.Quantity != 3 {
		t.Fatalf("expected stock decremented to 3, got %d", gotBeams.Quantity)
	}
}

func TestPlaceOrderShortfallLeavesNothingBehind(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	plenty := seedProduct(t, db, seller.ID, "Scrap copper pipe", "4.00", 100)
	scarce := seedProduct(t, db, seller.ID, "Antique door", "60.00", 1)

	svc := newTestService(t, db)
	_, err := svc.PlaceOrder(ctx, buyer.ID, PlaceOrderInput{Items: []OrderLineInput{
		{ProductID: plenty.ID, Quantity: 10},
		{ProductID: scarce.ID, Quantity: 3},
	}})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
		t.Fatalf("unexpected error: %v", err)
	}

	var orderCount, itemCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if err := db.Model(&models.OrderItem{}).Count(&itemCount).Error; err != nil {
		t.Fatalf("count items: %v", err)
	}
	if orderCount != 0 || itemCount != 0 {
		t.Fatalf("expected full rollback, got %d orders and %d items", orderCount, itemCount)
	}

	var gotPlenty models.Product
	if err := db.First(&gotPlenty, "id = ?", plenty.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if gotPlenty.Quantity != 100 {
		t.Fatalf("expected stock restored, got %d", gotPlenty.Quantity)
	}
}

func TestPlaceOrderSnapshotsPrice(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	product := seedProduct(t, db, seller.ID, "Steel sheeting", "22.00", 10)

	svc := newTestService(t, db)
	order, err := svc.PlaceOrder(ctx, buyer.ID, PlaceOrderInput{Items: []OrderLineInput{
		{ProductID: product.ID, Quantity: 1},
	}})
	if err != nil {
		t.Fatalf("place order: %v", err)
	}

	// later price changes must not touch the line snapshot
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("price", decimal.RequireFromString("99.00")).Error; err != nil {
		t.Fatalf("update price: %v", err)
	}

	reloaded, err := svc.GetOrder(ctx, buyer.ID, enums.UserRoleBuyer, order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !reloaded.Items[0].Price.Equal(decimal.RequireFromString("22.00")) {
		t.Fatalf("expected snapshot price 22.00, got %s", reloaded.Items[0].Price)
	}
}

func TestGetOrderAuthorization(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	stranger := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	admin := seedUser(t, db, enums.UserRoleAdmin)
	product := seedProduct(t, db, seller.ID, "Recycled insulation", "8.25", 20)
	order := seedOrder(t, db, buyer.ID, product, 2)

	svc := newTestService(t, db)

	if _, err := svc.GetOrder(ctx, buyer.ID, enums.UserRoleBuyer, order.ID); err != nil {
		t.Fatalf("buyer should see own order: %v", err)
	}
	if _, err := svc.GetOrder(ctx, seller.ID, enums.UserRoleSeller, order.ID); err != nil {
		t.Fatalf("seller should see order with own lines: %v", err)
	}
	if _, err := svc.GetOrder(ctx, admin.ID, enums.UserRoleAdmin, order.ID); err != nil {
		t.Fatalf("admin should see any order: %v", err)
	}

	_, err := svc.GetOrder(ctx, stranger.ID, enums.UserRoleBuyer, order.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for stranger, got %v", err)
	}

	_, err = svc.GetOrder(ctx, buyer.ID, enums.UserRoleBuyer, uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdateStatusLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	product := seedProduct(t, db, seller.ID, "Used scaffolding", "15.00", 30)
	order := seedOrder(t, db, buyer.ID, product, 2)

	svc := newTestService(t, db)

	updated, err := svc.UpdateStatus(ctx, seller.ID, enums.UserRoleSeller, order.ID, "confirmed")
	if err != nil {
		t.Fatalf("confirm order: %v", err)
	}
	if updated.Status != enums.OrderStatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}

	updated, err = svc.UpdateStatus(ctx, seller.ID, enums.UserRoleSeller, order.ID, "shipped")
	if err != nil {
		t.Fatalf("ship order: %v", err)
	}
	if updated.Status != enums.OrderStatusShipped {
		t.Fatalf("expected shipped, got %s", updated.Status)
	}

	// shipped is terminal
	_, err = svc.UpdateStatus(ctx, seller.ID, enums.UserRoleSeller, order.ID, "cancelled")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestUpdateStatusRejectedAliasesCancelled(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	product := seedProduct(t, db, seller.ID, "Reclaimed tiles", "2.00", 40)
	order := seedOrder(t, db, buyer.ID, product, 4)

	svc := newTestService(t, db)
	updated, err := svc.UpdateStatus(ctx, seller.ID, enums.UserRoleSeller, order.ID, "rejected")
	if err != nil {
		t.Fatalf("reject order: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	buyer := seedUser(t, db, enums.UserRoleBuyer)
	seller := seedUser(t, db, enums.UserRoleSeller)
	otherSeller := seedUser(t, db, enums.UserRoleSeller)
	admin := seedUser(t, db, enums.UserRoleAdmin)
	product := seedProduct(t, db, seller.ID, "Salvaged glass", "5.00", 40)
	order := seedOrder(t, db, buyer.ID, product, 1)

	svc := newTestService(t, db)

	_, err := svc.UpdateStatus(ctx, buyer.ID, enums.UserRoleBuyer, order.ID, "confirmed")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("buyers must not update status, got %v", err)
	}

	_, err = svc.UpdateStatus(ctx, otherSeller.ID, enums.UserRoleSeller, order.ID, "confirmed")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("unrelated seller must not update status, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, admin.ID, enums.UserRoleAdmin, order.ID, "confirmed"); err != nil {
		t.Fatalf("admin should update any order: %v", err)
	}
}
