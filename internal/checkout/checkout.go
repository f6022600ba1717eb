package checkout

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cart"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cms"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/fallback"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrEmptyCart is returned when checking out a cart with no items.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrUnavailable is returned for inactive products.
	ErrUnavailable = errors.New("product is not available")

	// ErrPaymentDeclined is returned when the gateway refuses the charge.
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrUnsupportedPayment is returned for unknown payment methods.
	ErrUnsupportedPayment = errors.New("unsupported payment method")
)

// Payment methods accepted at checkout.
const (
	MethodCard   = "card"
	MethodPayPal = "paypal"
)

const currency = "USD"

// Gateway charges an order and returns a payment reference.
type Gateway interface {
	Charge(ctx context.Context, order db.Order) (string, error)
}

// SimulatedGateway approves every charge unless Decline says otherwise.
type SimulatedGateway struct {
	Decline func(order db.Order) bool
}

func (g SimulatedGateway) Charge(_ context.Context, order db.Order) (string, error) {
	if g.Decline != nil && g.Decline(order) {
		return "", ErrPaymentDeclined
	}
	return "sim_" + uuid.NewString(), nil
}

// ProductSource resolves live products for direct checkout.
type ProductSource interface {
	Get(ctx context.Context, id string) (db.Product, error)
}

// Service turns carts and single products into paid orders.
type Service struct {
	products ProductSource
	orders   *cms.Service[db.Order, *db.Order]
	carts    *cart.Store
	gateway  Gateway
	log      *zap.Logger
	now      func() time.Time
}

func NewService(products ProductSource, orders *cms.Service[db.Order, *db.Order], carts *cart.Store, gateway Gateway, logger *zap.Logger) *Service {
	if gateway == nil {
		gateway = SimulatedGateway{}
	}
	return &Service{
		products: products,
		orders:   orders,
		carts:    carts,
		gateway:  gateway,
		log:      logger,
		now:      time.Now,
	}
}

// CheckoutCart orders everything in the user's cart at the prices captured
// when each item was added, then empties the cart.
func (s *Service) CheckoutCart(ctx context.Context, userID, method string) (db.Order, error) {
	c, err := s.carts.Cart(ctx, userID)
	if err != nil {
		return db.Order{}, err
	}
	if len(c.Items) == 0 {
		return db.Order{}, ErrEmptyCart
	}

	items := make([]db.OrderItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, orderItem(it.Snapshot, it.Quantity))
	}

	order, err := s.place(ctx, userID, method, items)
	if err != nil {
		return db.Order{}, err
	}

	// only the ordered lines are removed; items added meanwhile stay
	ordered := make(map[string]struct{}, len(items))
	for _, it := range items {
		ordered[it.ProductID] = struct{}{}
	}
	_, err = s.carts.UpdateCart(ctx, userID, func(c *cart.Cart) error {
		for id := range ordered {
			c.Remove(id)
		}
		return nil
	})
	if err != nil {
		s.log.Warn("Order placed but cart not cleared", zap.String("order", order.OrderNumber), zap.Error(err))
	}
	return order, nil
}

// DirectCheckout orders quantity units of one product at its current price.
func (s *Service) DirectCheckout(ctx context.Context, userID, productID string, quantity int, method string) (db.Order, error) {
	if quantity <= 0 {
		quantity = 1
	}
	p, err := s.products.Get(ctx, productID)
	if err != nil {
		return db.Order{}, err
	}
	if !p.IsActive {
		return db.Order{}, fmt.Errorf("%w: %s", ErrUnavailable, productID)
	}
	return s.place(ctx, userID, method, []db.OrderItem{orderItem(cart.SnapshotOf(p), quantity)})
}

// Orders returns the user's orders, newest first.
func (s *Service) Orders(ctx context.Context, userID string) ([]db.Order, error) {
	all, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	out := []db.Order{}
	for _, o := range all {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// place records a pending order, charges it and marks it paid. A declined
// payment cancels the order.
func (s *Service) place(ctx context.Context, userID, method string, items []db.OrderItem) (db.Order, error) {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "" {
		method = MethodCard
	}
	if method != MethodCard && method != MethodPayPal {
		return db.Order{}, fmt.Errorf("%w: %s", ErrUnsupportedPayment, method)
	}

	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal)
	}

	order, _, err := s.orders.Create(ctx, db.Order{
		UserID:        userID,
		OrderNumber:   s.orderNumber(),
		Status:        db.OrderPending,
		Items:         items,
		Total:         total,
		Currency:      currency,
		PaymentMethod: method,
	})
	if err != nil {
		return db.Order{}, err
	}

	ref, err := s.gateway.Charge(ctx, order)
	if err != nil {
		s.log.Warn("Payment failed", zap.String("order", order.OrderNumber), zap.Error(err))
		if _, _, cancelErr := s.orders.Update(ctx, order.ID, fallback.Patch{"status": db.OrderCancelled, "notes": err.Error()}); cancelErr != nil {
			s.log.Error("Failed to cancel unpaid order", zap.String("order", order.OrderNumber), zap.Error(cancelErr))
		}
		return db.Order{}, err
	}

	paid, _, err := s.orders.Update(ctx, order.ID, fallback.Patch{"status": db.OrderPaid, "notes": "payment " + ref})
	if err != nil {
		return db.Order{}, err
	}

	s.log.Info("Order placed",
		zap.String("order", paid.OrderNumber),
		zap.String("user_id", userID),
		zap.String("total", paid.Total.StringFixed(2)))
	return paid, nil
}

func (s *Service) orderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%s-%s", s.now().UTC().Format("20060102"), suffix)
}

func orderItem(s cart.Snapshot, qty int) db.OrderItem {
	return db.OrderItem{
		ProductID:   s.ProductID,
		Title:       s.Title,
		ProductType: s.ProductType,
		Quantity:    qty,
		UnitPrice:   s.Price,
		Subtotal:    s.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
}
