package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/app/repository"
	"github.com/intshop/intshop-backend/internal/app/service"
	"github.com/intshop/intshop-backend/internal/db"
	"github.com/intshop/intshop-backend/internal/middleware"
	"github.com/intshop/intshop-backend/pkg/kv"
	"github.com/intshop/intshop-backend/pkg/payment/stripe"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const paymentTestWebhookSecret = "whsec_controller_test"

// stubGateway returns canned sessions so handler tests never touch the network.
type stubGateway struct {
	sessions map[string]*stripe.CheckoutSession
	seq      int
	fail     bool
}

func newStubGateway() *stubGateway {
	return &stubGateway{sessions: make(map[string]*stripe.CheckoutSession)}
}

func (g *stubGateway) CreateCoupon(_ context.Context, _ stripe.CouponParams) (*stripe.Coupon, error) {
	if g.fail {
		return nil, errors.New("gateway unreachable")
	}
	return &stripe.Coupon{ID: "disc_stub", Valid: true}, nil
}

func (g *stubGateway) CreateCheckoutSession(_ context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if g.fail {
		return nil, errors.New("gateway unreachable")
	}

	total := int64(0)
	for _, item := range params.LineItems {
		total += item.UnitAmount * int64(item.Quantity)
	}

	g.seq++
	session := &stripe.CheckoutSession{
		ID:                "cs_stub_" + strconv.Itoa(g.seq),
		URL:               "https://checkout.example/s/" + strconv.Itoa(g.seq),
		Mode:              "payment",
		Status:            "open",
		PaymentStatus:     "unpaid",
		AmountTotal:       total,
		ClientReferenceID: params.ClientReferenceID,
	}
	g.sessions[session.ID] = session
	return session, nil
}

func (g *stubGateway) GetCheckoutSession(_ context.Context, sessionID string) (*stripe.CheckoutSession, error) {
	session, ok := g.sessions[sessionID]
	if !ok {
		return nil, stripe.ErrSessionNotFound
	}
	return session, nil
}

type paymentControllerFixture struct {
	router    *gin.Engine
	db        *gorm.DB
	orderRepo repository.OrderRepository
	gateway   *stubGateway
	user      *model.User

	authed bool
}

func setupPaymentControllerTest(t *testing.T) *paymentControllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(kv.NewMemoryStore(), time.Hour)
	orderRepo := repository.NewOrderRepository(testDB)
	couponRepo := repository.NewCouponRepository(testDB)
	giftCardRepo := repository.NewGiftCardRepository(testDB)

	discountSvc := service.NewDiscountService(cartRepo, couponRepo, giftCardRepo)
	gateway := newStubGateway()

	checkoutSvc := service.NewCheckoutService(orderRepo, discountSvc, nil, gateway, stripe.Config{
		SecretKey:     "sk_test",
		WebhookSecret: paymentTestWebhookSecret,
		BaseURL:       "https://api.checkout.example",
		Currency:      "usd",
		SuccessURL:    "https://shop.example/success",
		CancelURL:     "https://shop.example/cancel",
	})

	controller := NewPaymentController(checkoutSvc)

	user := &model.User{
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Buyer",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	f := &paymentControllerFixture{
		db:        testDB,
		orderRepo: orderRepo,
		gateway:   gateway,
		user:      user,
		authed:    true,
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if f.authed {
			c.Set(middleware.UserIDKey, user.ID)
		}
	})
	router.POST("/payments/checkout", controller.CreateCheckoutSession)
	router.POST("/payments/webhook", controller.HandleWebhook)
	router.GET("/payments/success", controller.PaymentSuccess)
	router.GET("/payments/cancel", controller.PaymentCancel)

	f.router = router
	return f
}

// createOnlineOrder persists an unpaid order payable online.
func (f *paymentControllerFixture) createOnlineOrder(t *testing.T, price decimal.Decimal, quantity int) *model.Order {
	product := &model.Product{
		Name:      "Walnut Desk Lamp",
		Slug:      "walnut-desk-lamp-" + strconv.FormatInt(time.Now().UnixNano(), 10),
		Price:     price,
		Available: true,
	}
	require.NoError(t, f.db.Create(product).Error)

	order := &model.Order{
		UserID:    f.user.ID,
		FirstName: "Ada",
		LastName:  "Buyer",
		Email:     "buyer@example.com",
		Phone:     "+1 415 555-0101",
		PayMethod: model.PayMethodOnline,
		OrderItems: []model.OrderItem{
			{ProductID: product.ID, Price: price, Quantity: quantity},
		},
	}
	require.NoError(t, f.orderRepo.Create(order))
	return order
}

func (f *paymentControllerFixture) post(path string, body gin.H) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *paymentControllerFixture) postWebhook(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func completionEvent(t *testing.T, session stripe.CheckoutSession) []byte {
	object, err := json.Marshal(session)
	require.NoError(t, err)

	payload, err := json.Marshal(map[string]interface{}{
		"id":      "evt_ctrl_1",
		"type":    "checkout.session.completed",
		"created": time.Now().Unix(),
		"data":    map[string]interface{}{"object": json.RawMessage(object)},
	})
	require.NoError(t, err)
	return payload
}

func TestPaymentController_CreateCheckoutSession(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromFloat(120.20), 2)

	w := f.post("/payments/checkout", gin.H{"order_id": order.ID})

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		SessionID   string `json:"session_id"`
		CheckoutURL string `json:"checkout_url"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.SessionID)
	assert.NotEmpty(t, body.CheckoutURL)
}

func TestPaymentController_CreateCheckoutSession_RequiresLogin(t *testing.T) {
	f := setupPaymentControllerTest(t)
	f.authed = false

	w := f.post("/payments/checkout", gin.H{"order_id": 1})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPaymentController_CreateCheckoutSession_InvalidBody(t *testing.T) {
	f := setupPaymentControllerTest(t)

	w := f.post("/payments/checkout", gin.H{})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_CreateCheckoutSession_UnknownOrder(t *testing.T) {
	f := setupPaymentControllerTest(t)

	w := f.post("/payments/checkout", gin.H{"order_id": 9999})

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ORDER_NOT_FOUND")
}

func TestPaymentController_CreateCheckoutSession_AlreadyPaid(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromInt(100), 1)

	flipped, err := f.orderRepo.MarkPaid(order.ID, "pi_prior")
	require.NoError(t, err)
	require.True(t, flipped)

	w := f.post("/payments/checkout", gin.H{"order_id": order.ID})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PAYMENT_ALREADY_PAID")
}

func TestPaymentController_CreateCheckoutSession_GatewayDown(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromInt(100), 1)
	f.gateway.fail = true

	w := f.post("/payments/checkout", gin.H{"order_id": order.ID})

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "PAYMENT_GATEWAY_ERROR")
}

func TestPaymentController_HandleWebhook(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromInt(100), 1)

	payload := completionEvent(t, stripe.CheckoutSession{
		ID:                "cs_hook_1",
		PaymentStatus:     "paid",
		AmountTotal:       10000,
		ClientReferenceID: strconv.FormatUint(uint64(order.ID), 10),
		PaymentIntent:     "pi_hook",
	})
	sig := stripe.SignPayload(payload, paymentTestWebhookSecret, time.Now())

	w := f.postWebhook(payload, sig)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received":true`)

	paid, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
}

func TestPaymentController_HandleWebhook_BadSignature(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromInt(100), 1)

	payload := completionEvent(t, stripe.CheckoutSession{
		ID:                "cs_hook_1",
		PaymentStatus:     "paid",
		AmountTotal:       10000,
		ClientReferenceID: strconv.FormatUint(uint64(order.ID), 10),
	})
	sig := stripe.SignPayload(payload, "not-the-secret", time.Now())

	w := f.postWebhook(payload, sig)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAYMENT_INVALID_SIGNATURE")

	untouched, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsPaid)
}

func TestPaymentController_HandleWebhook_MissingSignature(t *testing.T) {
	f := setupPaymentControllerTest(t)

	payload := completionEvent(t, stripe.CheckoutSession{ID: "cs_hook_1"})

	w := f.postWebhook(payload, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "PAYMENT_INVALID_SIGNATURE")
}

func TestPaymentController_HandleWebhook_AmountMismatch(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromInt(100), 1)

	payload := completionEvent(t, stripe.CheckoutSession{
		ID:                "cs_hook_1",
		PaymentStatus:     "paid",
		AmountTotal:       1,
		ClientReferenceID: strconv.FormatUint(uint64(order.ID), 10),
	})
	sig := stripe.SignPayload(payload, paymentTestWebhookSecret, time.Now())

	w := f.postWebhook(payload, sig)

	assert.Equal(t, http.StatusConflict, w.Code)

	untouched, err := f.orderRepo.FindByID(order.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsPaid)
}

func TestPaymentController_HandleWebhook_UnknownOrder(t *testing.T) {
	f := setupPaymentControllerTest(t)

	payload := completionEvent(t, stripe.CheckoutSession{
		ID:                "cs_hook_1",
		PaymentStatus:     "paid",
		AmountTotal:       10000,
		ClientReferenceID: "424242",
	})
	sig := stripe.SignPayload(payload, paymentTestWebhookSecret, time.Now())

	w := f.postWebhook(payload, sig)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "ORDER_NOT_FOUND")
}

func TestPaymentController_PaymentSuccess(t *testing.T) {
	f := setupPaymentControllerTest(t)
	order := f.createOnlineOrder(t, decimal.NewFromInt(100), 1)

	w := f.post("/payments/checkout", gin.H{"order_id": order.ID})
	require.Equal(t, http.StatusOK, w.Code)

	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	f.gateway.sessions[created.SessionID].PaymentStatus = "paid"
	f.gateway.sessions[created.SessionID].PaymentIntent = "pi_success"

	req := httptest.NewRequest(http.MethodGet, "/payments/success?session_id="+created.SessionID, nil)
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"is_paid":true`)
}

func TestPaymentController_PaymentSuccess_MissingSessionID(t *testing.T) {
	f := setupPaymentControllerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/payments/success", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentController_PaymentSuccess_UnknownSession(t *testing.T) {
	f := setupPaymentControllerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/payments/success?session_id=cs_missing", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "PAYMENT_SESSION_NOT_FOUND")
}

func TestPaymentController_PaymentCancel(t *testing.T) {
	f := setupPaymentControllerTest(t)

	req := httptest.NewRequest(http.MethodGet, "/payments/cancel?order_id=12", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "can be paid later")
}
