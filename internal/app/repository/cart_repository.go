package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/intshop/intshop-backend/internal/app/model"
	"github.com/intshop/intshop-backend/pkg/kv"
	"github.com/intshop/intshop-backend/pkg/logger"
)

const cartKeyPrefix = "cart:"

// CartRepository persists the session cart aggregate in the key-value session
// store. A missing key loads as a fresh empty cart; Save refreshes the TTL so
// an active session never expires under the shopper.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) (*model.Cart, error)
	Save(ctx context.Context, sessionID string, cart *model.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type cartRepository struct {
	store kv.Store
	ttl   time.Duration
}

func NewCartRepository(store kv.Store, ttl time.Duration) CartRepository {
	return &cartRepository{store: store, ttl: ttl}
}

func cartKey(sessionID string) string {
	return cartKeyPrefix + sessionID
}

func (r *cartRepository) Load(ctx context.Context, sessionID string) (*model.Cart, error) {
	raw, err := r.store.Get(ctx, cartKey(sessionID))
	if errors.Is(err, kv.ErrKeyNotFound) {
		return model.NewCart(), nil
	}
	if err != nil {
		logger.Error("Failed to load cart from session store", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, err
	}

	var cart model.Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		logger.Error("Failed to decode stored cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil, fmt.Errorf("failed to decode stored cart: %w", err)
	}
	if cart.Lines == nil {
		cart.Lines = make(map[uint]model.CartLine)
	}
	return &cart, nil
}

func (r *cartRepository) Save(ctx context.Context, sessionID string, cart *model.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := r.store.Set(ctx, cartKey(sessionID), string(raw), r.ttl); err != nil {
		logger.Error("Failed to save cart to session store", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.store.Delete(ctx, cartKey(sessionID)); err != nil {
		logger.Error("Failed to delete cart from session store", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	return nil
}
