package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/cart"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/checkout"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/coins"
	"github.com/mahinbs/series-shop-beacon-32-sub001/internal/repo"
	"github.com/shopspring/decimal"
)

const maxCartQuantity = 99

type cartResponse struct {
	Items    []cart.Item     `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func cartBody(c *cart.Cart) cartResponse {
	items := c.Items
	if items == nil {
		items = []cart.Item{}
	}
	return cartResponse{Items: items, Count: c.Count(), Subtotal: c.Subtotal()}
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (s *Server) GetCart(w http.ResponseWriter, r *http.Request) {
	c, err := s.carts.Cart(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartBody(c))
}

// AddToCart snapshots the live product into the cart.
func (s *Server) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}
	if req.Quantity > maxCartQuantity {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("quantity must be at most %d", maxCartQuantity))
		return
	}

	p, err := s.content.Products.Get(r.Context(), req.ProductID)
	if err == nil && !p.IsActive {
		err = fmt.Errorf("%w: %s", checkout.ErrUnavailable, p.ID)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap := cart.SnapshotOf(p)
	now := s.now()
	c, err := s.carts.UpdateCart(r.Context(), userID(r), func(c *cart.Cart) error {
		for i := 0; i < req.Quantity; i++ {
			c.Add(snap, now)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartBody(c))
}

var errNotInCart = errors.New("product is not in the cart")

func (s *Server) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Quantity > maxCartQuantity {
		writeMessage(w, http.StatusBadRequest, fmt.Sprintf("quantity must be at most %d", maxCartQuantity))
		return
	}

	productID := chi.URLParam(r, "productID")
	c, err := s.carts.UpdateCart(r.Context(), userID(r), func(c *cart.Cart) error {
		if !c.SetQuantity(productID, req.Quantity) {
			return errNotInCart
		}
		return nil
	})
	if errors.Is(err, errNotInCart) {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartBody(c))
}

func (s *Server) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	c, err := s.carts.UpdateCart(r.Context(), userID(r), func(c *cart.Cart) error {
		c.Remove(productID)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartBody(c))
}

func (s *Server) GetWishlist(w http.ResponseWriter, r *http.Request) {
	wl, err := s.carts.Wishlist(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (s *Server) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.content.Products.Get(r.Context(), req.ProductID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wl, err := s.carts.UpdateWishlist(r.Context(), userID(r), func(wl *cart.Wishlist) error {
		wl.Add(cart.SnapshotOf(p))
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

func (s *Server) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	wl, err := s.carts.UpdateWishlist(r.Context(), userID(r), func(wl *cart.Wishlist) error {
		wl.Remove(productID)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wl)
}

// coinWallet returns the wallet, or writes 503 when coins need a database
// this instance does not have.
func (s *Server) coinWallet(w http.ResponseWriter, r *http.Request) (*coins.Wallet, bool) {
	if s.wallet == nil {
		s.writeError(w, r, repo.ErrNoDatabase)
		return nil, false
	}
	return s.wallet, true
}

func (s *Server) CoinBalance(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	balance, err := wallet.Balance(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"balance": balance})
}

func (s *Server) CoinTransactions(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txs, err := wallet.History(r.Context(), userID(r), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) PurchaseCoins(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	var req struct {
		PackageID string `json:"package_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := wallet.Purchase(r.Context(), userID(r), req.PackageID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SpendCoins answers 200 with Success false when the balance is too low.
func (s *Server) SpendCoins(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	var req struct {
		Amount      int    `json:"amount"`
		Description string `json:"description"`
		Reference   string `json:"reference"`
	}
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := wallet.Spend(r.Context(), userID(r), req.Amount, req.Description, req.Reference)
	s.writeCoinResult(w, r, res, err)
}

func (s *Server) UnlockProduct(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	p, err := s.content.Products.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := wallet.UnlockProduct(r.Context(), userID(r), p)
	s.writeCoinResult(w, r, res, err)
}

func (s *Server) UnlockChapter(w http.ResponseWriter, r *http.Request) {
	wallet, ok := s.coinWallet(w, r)
	if !ok {
		return
	}
	ch, err := s.content.Chapters.Get(r.Context(), chi.URLParam(r, "chapterID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := wallet.UnlockChapter(r.Context(), userID(r), ch)
	s.writeCoinResult(w, r, res, err)
}

func (s *Server) writeCoinResult(w http.ResponseWriter, r *http.Request, res coins.Result, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if s.metrics != nil {
		s.metrics.CoinSpend(res.Success)
	}
	writeJSON(w, http.StatusOK, res)
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	Quantity      int    `json:"quantity"`
}

// decodeOptional accepts an empty body.
func decodeOptional(r *http.Request, v any) error {
	if r.ContentLength == 0 {
		return nil
	}
	return decodeJSON(r, v)
}

func (s *Server) CheckoutCart(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeOptional(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.checkout.CheckoutCart(r.Context(), userID(r), req.PaymentMethod)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) DirectCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeOptional(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := s.checkout.DirectCheckout(r.Context(), userID(r), chi.URLParam(r, "id"), req.Quantity, req.PaymentMethod)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (s *Server) Orders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.checkout.Orders(r.Context(), userID(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}
