package repository

import (
	"testing"
	"time"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupOrderTest(t *testing.T) (*gorm.DB, OrderRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	repo := NewOrderRepository(testDB)

	user := &model.User{
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		FirstName:    "Ada",
		LastName:     "Buyer",
		Role:         model.RoleUser,
	}
	require.NoError(t, testDB.Create(user).Error)

	product := &model.Product{
		Name:      "Walnut Desk Lamp",
		Slug:      "walnut-desk-lamp",
		Price:     decimal.NewFromFloat(120.20),
		Available: true,
	}
	require.NoError(t, testDB.Create(product).Error)

	return testDB, repo, user, product
}

func newTestOrder(user *model.User, product *model.Product) *model.Order {
	return &model.Order{
		UserID:    user.ID,
		FirstName: "Ada",
		LastName:  "Buyer",
		Email:     user.Email,
		Phone:     "+1 415 555-0101",
		PayMethod: model.PayMethodOnline,
		OrderItems: []model.OrderItem{
			{
				ProductID: product.ID,
				Price:     decimal.NewFromFloat(120.20),
				Quantity:  2,
			},
		},
	}
}

func TestOrderRepository_Create(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	order := newTestOrder(user, product)

	err := repo.Create(order)
	require.NoError(t, err)
	assert.NotZero(t, order.ID)
	assert.Len(t, order.OrderItems, 1)
	assert.False(t, order.IsPaid)
}

func TestOrderRepository_FindByID_PreloadsAssociations(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)

	delivery := &model.Delivery{
		FirstName:    "Ada",
		LastName:     "Buyer",
		Method:       model.DeliverySelf,
		DeliveryDate: time.Now().Add(48 * time.Hour),
	}
	require.NoError(t, testDB.Create(delivery).Error)

	order := newTestOrder(user, product)
	order.DeliveryID = &delivery.ID
	require.NoError(t, repo.Create(order))

	found, err := repo.FindByID(order.ID)
	require.NoError(t, err)

	require.Len(t, found.OrderItems, 1)
	assert.Equal(t, product.Name, found.OrderItems[0].Product.Name)
	require.NotNil(t, found.Delivery)
	assert.Equal(t, model.DeliverySelf, found.Delivery.Method)
	assert.True(t, found.RawTotal().Equal(decimal.NewFromFloat(240.40)))
}

func TestOrderRepository_FindByID_NotFound(t *testing.T) {
	_, repo, _, _ := setupOrderTest(t)

	_, err := repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOrderRepository_FindByUserID(t *testing.T) {
	testDB, repo, user, product := setupOrderTest(t)

	require.NoError(t, repo.Create(newTestOrder(user, product)))
	require.NoError(t, repo.Create(newTestOrder(user, product)))

	other := &model.User{Email: "other@example.com", PasswordHash: "hash", Role: model.RoleUser}
	require.NoError(t, testDB.Create(other).Error)
	require.NoError(t, repo.Create(newTestOrder(other, product)))

	orders, err := repo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 2)
	for _, order := range orders {
		assert.Equal(t, user.ID, order.UserID)
	}
}

func TestOrderRepository_MarkPaid(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	order := newTestOrder(user, product)
	require.NoError(t, repo.Create(order))

	flipped, err := repo.MarkPaid(order.ID, "pi_first")
	require.NoError(t, err)
	assert.True(t, flipped)

	paid, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	assert.Equal(t, "pi_first", paid.PaymentIntentID)
}

func TestOrderRepository_MarkPaid_SecondCallIsNoOp(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	order := newTestOrder(user, product)
	require.NoError(t, repo.Create(order))

	flipped, err := repo.MarkPaid(order.ID, "pi_first")
	require.NoError(t, err)
	require.True(t, flipped)

	flipped, err = repo.MarkPaid(order.ID, "pi_replay")
	require.NoError(t, err)
	assert.False(t, flipped)

	paid, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_first", paid.PaymentIntentID)
}

func TestOrderRepository_MarkPaid_UnknownOrder(t *testing.T) {
	_, repo, _, _ := setupOrderTest(t)

	flipped, err := repo.MarkPaid(9999, "pi_ghost")
	require.NoError(t, err)
	assert.False(t, flipped)
}

func TestOrderRepository_MarkDone(t *testing.T) {
	_, repo, user, product := setupOrderTest(t)

	order := newTestOrder(user, product)
	require.NoError(t, repo.Create(order))

	require.NoError(t, repo.MarkDone(order.ID))

	done, err := repo.FindByID(order.ID)
	require.NoError(t, err)
	assert.True(t, done.IsDone)
}
