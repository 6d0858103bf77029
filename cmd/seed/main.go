package main

import (
	"fmt"
	"log"
	"time"

	"github.com/intshop/intshop-backend/config"
	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/internal/db"
	"github.com/intshop/intshop-backend/pkg/util"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	productRepo := repository.NewProductRepository(db.GetDB())
	couponRepo := repository.NewCouponRepository(db.GetDB())
	giftCardRepo := repository.NewGiftCardRepository(db.GetDB())

	if err := seedUsers(userRepo); err != nil {
		log.Fatal("Failed to seed users:", err)
	}
	if err := seedProducts(productRepo); err != nil {
		log.Fatal("Failed to seed products:", err)
	}
	if err := seedCoupons(couponRepo); err != nil {
		log.Fatal("Failed to seed coupons:", err)
	}
	if err := seedGiftCards(giftCardRepo); err != nil {
		log.Fatal("Failed to seed gift cards:", err)
	}

	fmt.Println("Seed completed successfully!")
}

func seedUsers(repo repository.UserRepository) error {
	users := []struct {
		email     string
		password  string
		firstName string
		lastName  string
		phone     string
		role      model.UserRole
	}{
		{"admin@intshop.example", "admin1234", "Ada", "Admin", "+1 555 000 0001", model.RoleAdmin},
		{"alice@example.com", "alice1234", "Alice", "Archer", "+1 555 000 0002", model.RoleUser},
		{"bob@example.com", "bob12345", "Bob", "Breland", "+1 555 000 0003", model.RoleUser},
	}

	for _, u := range users {
		if existing, err := repo.FindByEmail(u.email); err == nil && existing != nil {
			continue
		}

		hash, err := util.HashPassword(u.password)
		if err != nil {
			return err
		}
		if err := repo.Create(&model.User{
			Email:        u.email,
			PasswordHash: hash,
			FirstName:    u.firstName,
			LastName:     u.lastName,
			Phone:        u.phone,
			Role:         u.role,
		}); err != nil {
			return err
		}
		fmt.Printf("Seeded user %s\n", u.email)
	}
	return nil
}

func seedProducts(repo repository.ProductRepository) error {
	promo := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	products := []model.Product{
		{
			Name:        "Walnut Desk Lamp",
			Slug:        "walnut-desk-lamp",
			Description: "Hand-finished walnut base with a brass stem.",
			Price:       decimal.RequireFromString("120.20"),
			Category:    "lighting",
			Available:   true,
			ImageURL:    "/media/walnut-desk-lamp.jpg",
		},
		{
			Name:             "Ceramic Pour-Over Set",
			Slug:             "ceramic-pour-over-set",
			Description:      "Matte ceramic dripper with a 600ml carafe.",
			Price:            decimal.RequireFromString("300.25"),
			Promotional:      true,
			PromotionalPrice: promo("250.00"),
			Category:         "kitchen",
			Available:        true,
			ImageURL:         "/media/ceramic-pour-over-set.jpg",
		},
		{
			Name:        "Wool Throw Blanket",
			Slug:        "wool-throw-blanket",
			Description: "Heavy merino wool, 130x180cm.",
			Price:       decimal.RequireFromString("650.45"),
			Category:    "textiles",
			Available:   true,
			ImageURL:    "/media/wool-throw-blanket.jpg",
		},
	}

	for i := range products {
		if existing, err := repo.FindBySlug(products[i].Slug); err == nil && existing != nil {
			continue
		}
		if err := repo.Create(&products[i]); err != nil {
			return err
		}
		fmt.Printf("Seeded product %s\n", products[i].Slug)
	}
	return nil
}

func seedCoupons(repo repository.CouponRepository) error {
	now := time.Now()
	coupons := []model.Coupon{
		{
			Code:      "WELCOME20",
			ValidFrom: now.AddDate(0, 0, -1),
			ValidTo:   now.AddDate(0, 3, 0),
			Discount:  20,
			Category:  "general",
		},
		{
			Code:      "SPRING10",
			ValidFrom: now.AddDate(0, 0, -1),
			ValidTo:   now.AddDate(0, 1, 0),
			Discount:  10,
			Category:  "seasonal",
		},
	}

	for i := range coupons {
		if existing, err := repo.FindByCode(coupons[i].Code); err == nil && existing != nil {
			continue
		}
		if err := repo.Create(&coupons[i]); err != nil {
			return err
		}
		fmt.Printf("Seeded coupon %s\n", coupons[i].Code)
	}
	return nil
}

func seedGiftCards(repo repository.GiftCardRepository) error {
	now := time.Now()
	cards := []model.GiftCard{
		{
			Code:      "GIFT-" + util.GenerateCode(8),
			ValidFrom: now.AddDate(0, 0, -1),
			ValidTo:   now.AddDate(1, 0, 0),
			Amount:    decimal.RequireFromString("250.00"),
			Category:  "general",
			FromName:  "INTSHOP",
			ToName:    "Demo Shopper",
			Message:   "Enjoy your first order on us.",
		},
		{
			Code:      "GIFT-" + util.GenerateCode(8),
			ValidFrom: now.AddDate(0, 0, -1),
			ValidTo:   now.AddDate(1, 0, 0),
			Amount:    decimal.RequireFromString("50.00"),
			Category:  "general",
			FromName:  "INTSHOP",
			ToName:    "Demo Shopper",
			Message:   "A little something extra.",
		},
	}

	for i := range cards {
		if err := repo.Create(&cards[i]); err != nil {
			return err
		}
		fmt.Printf("Seeded gift card %s\n", cards[i].Code)
	}
	return nil
}
