package cart

import (
	"time"

	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/db"
	"github.com/shopspring/decimal"
)

// Snapshot freezes the product fields shown in a cart or wishlist. It is
// captured when the product is added and never refreshed from the catalog,
// so later price edits do not change existing entries.
type Snapshot struct {
	ProductID     string              `json:"product_id"`
	Title         string              `json:"title"`
	Author        string              `json:"author,omitempty"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"original_price"`
	ImageURL      string              `json:"image_url"`
	Category      string              `json:"category"`
	ProductType   db.ProductType      `json:"product_type"`
}

func SnapshotOf(p db.Product) Snapshot {
	return Snapshot{
		ProductID:     p.ID,
		Title:         p.Title,
		Author:        p.Author,
		Price:         p.Price,
		OriginalPrice: p.OriginalPrice,
		ImageURL:      p.ImageURL,
		Category:      p.Category,
		ProductType:   p.ProductType,
	}
}

type Item struct {
	Snapshot
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

// Subtotal is the frozen unit price times quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one item per product id.
type Cart struct {
	Items []Item `json:"items"`
}

// Add increments the quantity of an existing entry, or appends s with quantity 1.
func (c *Cart) Add(s Snapshot, now time.Time) {
	for i := range c.Items {
		if c.Items[i].ProductID == s.ProductID {
			c.Items[i].Quantity++
			return
		}
	}
	c.Items = append(c.Items, Item{Snapshot: s, Quantity: 1, AddedAt: now})
}

// Remove drops the entry for productID. Absent ids are ignored.
func (c *Cart) Remove(productID string) {
	out := c.Items[:0]
	for _, it := range c.Items {
		if it.ProductID != productID {
			out = append(out, it)
		}
	}
	c.Items = out
}

func (c *Cart) Contains(productID string) bool {
	for _, it := range c.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

// SetQuantity overwrites the quantity; n <= 0 removes the entry. It reports
// whether the product was in the cart.
func (c *Cart) SetQuantity(productID string, n int) bool {
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if n <= 0 {
			c.Remove(productID)
		} else {
			c.Items[i].Quantity = n
		}
		return true
	}
	return false
}

// Count is the total number of units.
func (c *Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) Clear() { c.Items = nil }

// Wishlist holds at most one snapshot per product id.
type Wishlist struct {
	Items []Snapshot `json:"items"`
}

// Add appends s unless the product is already present.
func (w *Wishlist) Add(s Snapshot) {
	if w.Contains(s.ProductID) {
		return
	}
	w.Items = append(w.Items, s)
}

func (w *Wishlist) Remove(productID string) {
	out := w.Items[:0]
	for _, s := range w.Items {
		if s.ProductID != productID {
			out = append(out, s)
		}
	}
	w.Items = out
}

func (w *Wishlist) Contains(productID string) bool {
	for _, s := range w.Items {
		if s.ProductID == productID {
			return true
		}
	}
	return false
}

// Toggle adds or removes s and reports whether it is now wished for.
func (w *Wishlist) Toggle(s Snapshot) bool {
	if w.Contains(s.ProductID) {
		w.Remove(s.ProductID)
		return false
	}
	w.Add(s)
	return true
}
