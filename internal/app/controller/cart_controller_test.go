package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/internal/app/service"
	"github.com/intshop/intshop-backend/internal/db"
	"github.com/intshop/intshop-backend/internal/middleware"
	"github.com/intshop/intshop-backend/pkg/kv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSessionID = "test-session"

type cartControllerFixture struct {
	router   *gin.Engine
	db       *gorm.DB
	cartRepo repository.CartRepository

	// userID simulates an authenticated profile when set
	userID *uint
}

func setupCartControllerTest(t *testing.T) *cartControllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(kv.NewMemoryStore(), time.Hour)
	productRepo := repository.NewProductRepository(testDB)
	couponRepo := repository.NewCouponRepository(testDB)
	giftCardRepo := repository.NewGiftCardRepository(testDB)

	cartService := service.NewCartService(cartRepo, productRepo)
	discountService := service.NewDiscountService(cartRepo, couponRepo, giftCardRepo)

	cartController := NewCartController(cartService, discountService)
	discountController := NewDiscountController(discountService)

	f := &cartControllerFixture{db: testDB, cartRepo: cartRepo}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.SessionIDKey, testSessionID)
		if f.userID != nil {
			c.Set(middleware.UserIDKey, *f.userID)
		}
	})

	router.GET("/cart", cartController.GetCart)
	router.POST("/cart", cartController.AddToCart)
	router.DELETE("/cart", cartController.ClearCart)
	router.DELETE("/cart/:productID", cartController.RemoveFromCart)
	router.POST("/cart/coupon", discountController.ApplyCoupon)
	router.DELETE("/cart/coupon", discountController.CancelCoupon)
	router.POST("/cart/gift-card", discountController.ApplyGiftCard)
	router.DELETE("/cart/gift-card", discountController.CancelGiftCard)

	f.router = router
	return f
}

func (f *cartControllerFixture) createProduct(t *testing.T, slug string, price decimal.Decimal) *model.Product {
	product := &model.Product{
		Name:      "Product " + slug,
		Slug:      slug,
		Price:     price,
		Available: true,
	}
	require.NoError(t, f.db.Create(product).Error)
	return product
}

func (f *cartControllerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCartController_GetCart_Empty(t *testing.T) {
	f := setupCartControllerTest(t)

	w := f.do(http.MethodGet, "/cart", nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["total_items"])
	assert.Equal(t, "0", body["raw_total"])
}

func TestCartController_AddToCart(t *testing.T) {
	f := setupCartControllerTest(t)
	product := f.createProduct(t, "desk-lamp", decimal.NewFromFloat(120.20))

	w := f.do(http.MethodPost, "/cart", gin.H{"product_id": product.ID, "quantity": 2})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = f.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["total_items"])
	assert.Equal(t, "240.4", body["raw_total"])
	assert.Equal(t, "240.4", body["discounted_total"])
}

func TestCartController_AddToCart_UnknownProduct(t *testing.T) {
	f := setupCartControllerTest(t)

	w := f.do(http.MethodPost, "/cart", gin.H{"product_id": 9999, "quantity": 1})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "CART_PRODUCT_NOT_FOUND")
}

func TestCartController_AddToCart_InvalidBody(t *testing.T) {
	f := setupCartControllerTest(t)

	tests := []struct {
		name string
		body gin.H
	}{
		{"No product", gin.H{"quantity": 1}},
		{"Zero quantity", gin.H{"product_id": 1, "quantity": 0}},
		{"Negative quantity", gin.H{"product_id": 1, "quantity": -2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/cart", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestCartController_RemoveFromCart(t *testing.T) {
	f := setupCartControllerTest(t)
	product := f.createProduct(t, "desk-lamp", decimal.NewFromFloat(120.20))

	f.do(http.MethodPost, "/cart", gin.H{"product_id": product.ID, "quantity": 1})

	w := f.do(http.MethodDelete, "/cart/1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodDelete, "/cart/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_ClearCart(t *testing.T) {
	f := setupCartControllerTest(t)
	product := f.createProduct(t, "desk-lamp", decimal.NewFromFloat(120.20))

	f.do(http.MethodPost, "/cart", gin.H{"product_id": product.ID, "quantity": 3})

	w := f.do(http.MethodDelete, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/cart", nil)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(0), body["total_items"])
}

func TestCartController_GetCart_ReportsStaleDiscount(t *testing.T) {
	f := setupCartControllerTest(t)
	product := f.createProduct(t, "desk-lamp", decimal.NewFromFloat(120.20))

	coupon := &model.Coupon{
		Code:      "SOON",
		ValidFrom: time.Now().Add(-time.Hour),
		ValidTo:   time.Now().Add(time.Hour),
		Discount:  20,
	}
	require.NoError(t, f.db.Create(coupon).Error)

	f.do(http.MethodPost, "/cart", gin.H{"product_id": product.ID, "quantity": 1})
	w := f.do(http.MethodPost, "/cart/coupon", gin.H{"code": "SOON"})
	require.Equal(t, http.StatusOK, w.Code)

	// the window closes while the coupon sits in the cart
	coupon.ValidTo = time.Now().Add(-time.Minute)
	require.NoError(t, f.db.Save(coupon).Error)

	w = f.do(http.MethodGet, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	require.Contains(t, body, "discount_error")
	discountErr := body["discount_error"].(map[string]interface{})
	assert.Equal(t, "coupon", discountErr["subject"])
	assert.Equal(t, "expired", discountErr["reason"])
	assert.Equal(t, "120.2", body["raw_total"])
	assert.NotContains(t, body, "discounted_total")
}
