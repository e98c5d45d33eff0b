package migrate

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rematter-io/rematter-backend/pkg/config"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	"github.com/rematter-io/rematter-backend/pkg/security"
)

// SeedAdminEmail is the sentinel account used to detect an already-seeded
// database.
const SeedAdminEmail = "admin@example.com"

const seedPassword = "password"

func strPtr(s string) *string { return &s }

// Seed populates a development database with demo accounts, a scrap-material
// catalog and one pending order awaiting admin approval. It is idempotent:
// if the demo admin already exists the whole run is skipped.
func Seed(ctx context.Context, gdb *gorm.DB, pwCfg config.PasswordConfig) error {
	var existing int64
	err := gdb.WithContext(ctx).
		Model(&models.User{}).
		Where("email = ?", SeedAdminEmail).
		Count(&existing).Error
	if err != nil {
		return fmt.Errorf("checking for existing seed data: %w", err)
	}
	if existing > 0 {
		return nil
	}

	hash, err := security.HashPassword(seedPassword, pwCfg)
	if err != nil {
		return fmt.Errorf("hashing seed password: %w", err)
	}

	return gdb.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		admin := &models.User{
			Name:         "Admin User",
			Email:        SeedAdminEmail,
			PasswordHash: hash,
			Role:         enums.UserRoleAdmin,
		}
		seller := &models.User{
			Name:         "John Seller",
			Email:        "seller@example.com",
			PasswordHash: hash,
			Role:         enums.UserRoleSeller,
		}
		buyer := &models.User{
			Name:         "Jane Buyer",
			Email:        "buyer@example.com",
			PasswordHash: hash,
			Role:         enums.UserRoleBuyer,
		}
		for _, user := range []*models.User{admin, seller, buyer} {
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("seeding user %s: %w", user.Email, err)
			}
		}

		products := []models.Product{
			{
				SellerID:    seller.ID,
				Name:        "Scrap Copper Wire",
				Category:    "Metal",
				Condition:   "Scrap",
				Price:       decimal.RequireFromString("50.00"),
				Quantity:    100,
				Description: strPtr("High quality copper wire scrap stripped from renovation."),
			},
			{
				SellerID:    seller.ID,
				Name:        "Used Steel Pipes",
				Category:    "Metal",
				Condition:   "Used-Good",
				Price:       decimal.RequireFromString("20.00"),
				Quantity:    50,
				Description: strPtr("Steel pipes from old plumbing, good condition."),
			},
			{
				SellerID:    seller.ID,
				Name:        "Old Motherboards",
				Category:    "Electronics",
				Condition:   "Scrap",
				Price:       decimal.RequireFromString("15.00"),
				Quantity:    20,
				Description: strPtr("Non-functional motherboards for gold recovery."),
			},
		}
		for i := range products {
			if err := tx.Create(&products[i]).Error; err != nil {
				return fmt.Errorf("seeding product %s: %w", products[i].Name, err)
			}
		}

		// Demo order: the buyer takes 5 kg of copper wire, still pending
		// admin approval.
		demo := &products[0]
		qty := 5
		order := &models.Order{
			BuyerID:    buyer.ID,
			TotalPrice: demo.Price.Mul(decimal.NewFromInt(int64(qty))),
			Status:     enums.OrderStatusPending,
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("seeding order: %w", err)
		}
		item := &models.OrderItem{
			OrderID:   order.ID,
			ProductID: demo.ID,
			Quantity:  qty,
			Price:     demo.Price,
		}
		if err := tx.Create(item).Error; err != nil {
			return fmt.Errorf("seeding order item: %w", err)
		}
		txn := &models.Transaction{
			OrderID: order.ID,
			Status:  enums.TransactionStatusPending,
		}
		if err := tx.Create(txn).Error; err != nil {
			return fmt.Errorf("seeding transaction: %w", err)
		}

		err := tx.Model(&models.Product{}).
			Where("id = ?", demo.ID).
			UpdateColumn("quantity", gorm.Expr("quantity - ?", qty)).Error
		if err != nil {
			return fmt.Errorf("reserving demo stock: %w", err)
		}
		return nil
	})
}
