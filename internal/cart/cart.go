// Package cart keeps the shopping cart in memory and mirrors every change to
// storage so it survives restarts. A logout empties it; a login keeps it.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/safar/flowerstore/internal/events"
	"github.com/safar/flowerstore/internal/models"
	"github.com/safar/flowerstore/internal/services"
	"github.com/safar/flowerstore/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrInvalidItem = errors.New("cart item needs a product id")
)

// OrderPlacer submits an order built from the cart.
type OrderPlacer interface {
	Create(ctx context.Context, req services.CreateOrderRequest) (models.Order, error)
}

type Cart struct {
	storage storage.Store

	mu    sync.Mutex
	items []models.CartItem
	owner int64

	unsubscribe func()
}

// New loads any persisted cart and starts following auth changes on bus.
// Unreadable cart data is discarded.
func New(ctx context.Context, st storage.Store, bus *events.Bus) (*Cart, error) {
	c := &Cart{storage: st}

	raw, err := st.Get(ctx, storage.KeyCartItems)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("load cart: %w", err)
	default:
		if err := json.Unmarshal([]byte(raw), &c.items); err != nil {
			log.Printf("Warning: discarding unreadable cart: %v", err)
			c.items = nil
		}
	}
	c.items = sanitize(c.items)

	c.unsubscribe = bus.AuthChange.Subscribe(c.onAuthChange)
	return c, nil
}

func (c *Cart) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

func (c *Cart) onAuthChange(ev events.AuthChange) {
	switch ev.Type {
	case events.AuthLogout:
		if err := c.Clear(context.Background()); err != nil {
			log.Printf("Failed to clear cart on logout: %v", err)
		}
		c.mu.Lock()
		c.owner = 0
		c.mu.Unlock()
	case events.AuthLogin:
		if ev.User == nil {
			return
		}
		c.mu.Lock()
		c.owner = ev.User.ID
		c.mu.Unlock()
	}
}

// Add merges by product id. A quantity below one counts as one.
func (c *Cart) Add(ctx context.Context, item models.CartItem) error {
	if item.ProductID == 0 {
		return ErrInvalidItem
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(item.ProductID); i >= 0 {
		c.items[i].Quantity += item.Quantity
	} else {
		c.items = append(c.items, item)
	}
	return c.persistLocked(ctx)
}

func (c *Cart) Remove(ctx context.Context, productID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.indexLocked(productID); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
	return c.persistLocked(ctx)
}

// UpdateQuantity sets the quantity of a line; below one removes it.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexLocked(productID)
	if i < 0 {
		return nil
	}
	if quantity < 1 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	} else {
		c.items[i].Quantity = quantity
	}
	return c.persistLocked(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	return c.persistLocked(ctx)
}

// Count is the sum of quantities.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]models.CartItem{}, c.items...)
}

// Owner returns the id of the user the cart belongs to, or 0 for a guest.
func (c *Cart) Owner() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner
}

type CheckoutDetails struct {
	RecipientName   string
	RecipientPhone  string
	DeliveryAddress string
	DeliveryArea    string
	DeliveryDate    string
	GiftMessage     string
}

// Checkout places an order for the current items. The cart is emptied only
// when the order is accepted.
func (c *Cart) Checkout(ctx context.Context, placer OrderPlacer, details CheckoutDetails) (models.Order, error) {
	items := c.Items()
	if len(items) == 0 {
		return models.Order{}, ErrEmptyCart
	}

	lines := make([]services.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, services.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	order, err := placer.Create(ctx, services.CreateOrderRequest{
		Items:           lines,
		RecipientName:   details.RecipientName,
		RecipientPhone:  details.RecipientPhone,
		DeliveryAddress: details.DeliveryAddress,
		DeliveryArea:    details.DeliveryArea,
		DeliveryDate:    details.DeliveryDate,
		GiftMessage:     details.GiftMessage,
	})
	if err != nil {
		return models.Order{}, fmt.Errorf("place order: %w", err)
	}

	if err := c.Clear(ctx); err != nil {
		log.Printf("Order %s placed but cart was not cleared: %v", order.OrderNumber, err)
	}
	return order, nil
}

func (c *Cart) indexLocked(productID int64) int {
	for i, item := range c.items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) persistLocked(ctx context.Context) error {
	items := c.items
	if items == nil {
		items = []models.CartItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.storage.Set(ctx, storage.KeyCartItems, string(data)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

// sanitize drops lines without a product and merges duplicates so loaded
// data obeys the same rules as Add.
func sanitize(items []models.CartItem) []models.CartItem {
	var out []models.CartItem
	seen := make(map[int64]int)
	for _, item := range items {
		if item.ProductID == 0 || item.Quantity < 1 {
			continue
		}
		if i, ok := seen[item.ProductID]; ok {
			out[i].Quantity += item.Quantity
			continue
		}
		seen[item.ProductID] = len(out)
		out = append(out, item)
	}
	return out
}
