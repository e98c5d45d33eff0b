package migrate_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/pkg/config"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	"github.com/rematter-io/rematter-backend/pkg/migrate"
	"github.com/rematter-io/rematter-backend/pkg/security"
)

func newSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:seed_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = gdb.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.Transaction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func fastPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestSeedCreatesDemoData(t *testing.T) {
	t.Parallel()

	gdb := newSeedDB(t)
	ctx := context.Background()

	if err := migrate.Seed(ctx, gdb, fastPasswordConfig()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var users int64
	if err := gdb.Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if users != 3 {
		t.Fatalf("expected 3 demo users, got %d", users)
	}

	var admin models.User
	if err := gdb.Where("email = ?", migrate.SeedAdminEmail).First(&admin).Error; err != nil {
		t.Fatalf("find admin: %v", err)
	}
	if admin.Role != enums.UserRoleAdmin {
		t.Fatalf("expected admin role, got %s", admin.Role)
	}
	ok, err := security.VerifyPassword("password", admin.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("demo password does not verify (ok=%v err=%v)", ok, err)
	}

	var products int64
	if err := gdb.Model(&models.Product{}).Count(&products).Error; err != nil {
		t.Fatalf("count products: %v", err)
	}
	if products != 3 {
		t.Fatalf("expected 3 demo products, got %d", products)
	}

	var copper models.Product
	if err := gdb.Where("name = ?", "Scrap Copper Wire").First(&copper).Error; err != nil {
		t.Fatalf("find copper wire: %v", err)
	}
	if copper.Quantity != 95 {
		t.Fatalf("expected demo order to reserve stock (95 left), got %d", copper.Quantity)
	}

	var order models.Order
	if err := gdb.Preload("Items").Preload("Transaction").First(&order).Error; err != nil {
		t.Fatalf("find demo order: %v", err)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending demo order, got %s", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 5 {
		t.Fatalf("unexpected demo order items: %+v", order.Items)
	}
	if order.Transaction == nil || order.Transaction.Status != enums.TransactionStatusPending {
		t.Fatalf("expected pending transaction, got %+v", order.Transaction)
	}
	if !order.TotalPrice.Equal(decimal.RequireFromString("250.00")) {
		t.Fatalf("expected total price 250.00, got %s", order.TotalPrice)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	t.Parallel()

	gdb := newSeedDB(t)
	ctx := context.Background()

	if err := migrate.Seed(ctx, gdb, fastPasswordConfig()); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := migrate.Seed(ctx, gdb, fastPasswordConfig()); err != nil {
		t.Fatalf("second seed: %v", err)
	}

	var users, orders int64
	if err := gdb.Model(&models.User{}).Count(&users).Error; err != nil {
		t.Fatalf("count users: %v", err)
	}
	if err := gdb.Model(&models.Order{}).Count(&orders).Error; err != nil {
		t.Fatalf("count orders: %v", err)
	}
	if users != 3 || orders != 1 {
		t.Fatalf("expected seed to run once (3 users, 1 order), got %d users %d orders", users, orders)
	}
}
