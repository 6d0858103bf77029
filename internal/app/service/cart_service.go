package service

import (
	"context"
	"errors"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// CartItemView is one cart line joined with the live catalog record for
// display. UnitPrice stays the stored snapshot even when the catalog price
// has moved since the line was added.
type CartItemView struct {
	ProductID uint            `json:"product_id"`
	Name      string          `json:"name"`
	Slug      string          `json:"slug"`
	ImageURL  string          `json:"image_url"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Total     decimal.Decimal `json:"total"`
}

type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*model.Cart, []CartItemView, error)
	AddToCart(ctx context.Context, sessionID string, productID uint, quantity int) error
	RemoveFromCart(ctx context.Context, sessionID string, productID uint) error
	ClearCart(ctx context.Context, sessionID string) error
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart loads the session cart and joins its lines with the catalog. Lines
// whose product has vanished or gone unavailable are skipped in the view; the
// stored aggregate is not mutated.
func (s *cartService) GetCart(ctx context.Context, sessionID string) (*model.Cart, []CartItemView, error) {
	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	if cart.IsEmpty() {
		return cart, []CartItemView{}, nil
	}

	ids := make([]uint, 0, len(cart.Lines))
	for id := range cart.Lines {
		ids = append(ids, id)
	}

	products, err := s.productRepo.FindAvailableByIDs(ids)
	if err != nil {
		return nil, nil, err
	}

	items := make([]CartItemView, 0, len(products))
	for _, product := range products {
		line := cart.Lines[product.ID]
		items = append(items, CartItemView{
			ProductID: product.ID,
			Name:      product.Name,
			Slug:      product.Slug,
			ImageURL:  product.ImageURL,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Total:     line.Total(),
		})
	}

	logger.Debug("Cart fetched", map[string]interface{}{
		"session_id": sessionID,
		"lines":      cart.DistinctLineCount(),
		"items":      cart.TotalItemCount(),
	})
	return cart, items, nil
}

// AddToCart inserts a line with the product's current price as snapshot, or
// overwrites the quantity of an existing line. Repeating an add never touches
// the stored snapshot price.
func (s *cartService) AddToCart(ctx context.Context, sessionID string, productID uint, quantity int) error {
	logger.Info("Adding product to cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if quantity < 1 {
		logger.Warn("Cannot add to cart: invalid quantity", map[string]interface{}{
			"session_id": sessionID,
			"product_id": productID,
			"quantity":   quantity,
		})
		return ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"session_id": sessionID,
				"product_id": productID,
			})
			return ErrProductNotFound
		}
		logger.Error("Failed to fetch product for cart add", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}

	if !product.Available {
		logger.Warn("Cannot add to cart: product unavailable", map[string]interface{}{
			"session_id": sessionID,
			"product_id": productID,
		})
		return ErrProductNotFound
	}

	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	cart.Add(productID, product.CurrentPrice(), quantity)
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		return err
	}

	logger.Info("Product added to cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
		"line_count": cart.DistinctLineCount(),
	})
	return nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, sessionID string, productID uint) error {
	logger.Info("Removing product from cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
	})

	cart, err := s.cartRepo.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	cart.Remove(productID)
	if err := s.cartRepo.Save(ctx, sessionID, cart); err != nil {
		return err
	}

	logger.Info("Product removed from cart", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
		"line_count": cart.DistinctLineCount(),
	})
	return nil
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) error {
	logger.Info("Clearing cart", map[string]interface{}{
		"session_id": sessionID,
	})

	if err := s.cartRepo.Delete(ctx, sessionID); err != nil {
		return err
	}

	logger.Info("Cart cleared", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}
