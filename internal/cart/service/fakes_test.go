package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"stockcart/internal/domain"
	apperrors "stockcart/internal/errors"
)

// memStore is an in-memory stand-in for the four tables. Transactions run one
// at a time and restore a snapshot when the function fails, which matches
// the product-row serialization the MySQL implementation gives per product.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products map[int64]domain.Product
	received map[int64]int
	carts    map[int64]domain.Cart
	lines    map[int64]domain.CartLine

	nextCartID int64
	nextLineID int64

	failUpdateSum error
}

func newMemStore() *memStore {
	return &memStore{
		products: map[int64]domain.Product{},
		received: map[int64]int{},
		carts:    map[int64]domain.Cart{},
		lines:    map[int64]domain.CartLine{},
	}
}

func (s *memStore) addProduct(id int64, price string, received, minStock int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = domain.Product{
		ID:               id,
		Name:             fmt.Sprintf("product-%d", id),
		Price:            decimal.RequireFromString(price),
		Unit:             "pcs",
		MinStockQuantity: minStock,
	}
	s.received[id] = received
}

func (s *memStore) available(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableLocked(productID)
}

func (s *memStore) availableLocked(productID int64) int {
	reserved := 0
	for _, l := range s.lines {
		if l.ProductID == productID {
			reserved += l.Quantity
		}
	}
	return domain.AvailableQuantity(s.received[productID], reserved)
}

func (s *memStore) cartCount(userID int64, state domain.CartState) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.carts {
		if c.UserID == userID && c.State == state {
			n++
		}
	}
	return n
}

func (s *memStore) lineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

type memSnapshot struct {
	carts      map[int64]domain.Cart
	lines      map[int64]domain.CartLine
	nextCartID int64
	nextLineID int64
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		carts:      make(map[int64]domain.Cart, len(s.carts)),
		lines:      make(map[int64]domain.CartLine, len(s.lines)),
		nextCartID: s.nextCartID,
		nextLineID: s.nextLineID,
	}
	for k, v := range s.carts {
		snap.carts[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts = snap.carts
	s.lines = snap.lines
	s.nextCartID = snap.nextCartID
	s.nextLineID = snap.nextLineID
}

type fakeTransactor struct {
	store *memStore
}

func (f *fakeTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	f.store.txMu.Lock()
	defer f.store.txMu.Unlock()

	snap := f.store.snapshot()
	if err := fn(ctx, nil); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

type fakeProducts struct{ store *memStore }

func (f *fakeProducts) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Product, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	p, ok := f.store.products[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("product with id %d not found", id))
	}
	return &p, nil
}

type fakeStock struct{ store *memStore }

func (f *fakeStock) AvailableQuantity(ctx context.Context, tx *sql.Tx, productID int64) (int, error) {
	return f.store.available(productID), nil
}

type fakeCarts struct{ store *memStore }

func (f *fakeCarts) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.Cart, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	c, ok := f.store.carts[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cart with id %d not found", id))
	}
	return &c, nil
}

func (f *fakeCarts) FindActiveByUser(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, c := range f.store.carts {
		if c.UserID == userID && c.IsActive() {
			c := c
			return &c, nil
		}
	}
	return nil, apperrors.NewNotFoundError("no active cart")
}

func (f *fakeCarts) FindActiveByUserForUpdate(ctx context.Context, tx *sql.Tx, userID int64) (*domain.Cart, error) {
	return f.FindActiveByUser(ctx, tx, userID)
}

func (f *fakeCarts) Create(ctx context.Context, tx *sql.Tx, cart domain.Cart) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, c := range f.store.carts {
		if c.UserID == cart.UserID && c.IsActive() && cart.IsActive() {
			return 0, errors.New("duplicate active cart")
		}
	}
	f.store.nextCartID++
	cart.ID = f.store.nextCartID
	f.store.carts[cart.ID] = cart
	return cart.ID, nil
}

func (f *fakeCarts) UpdateSum(ctx context.Context, tx *sql.Tx, id int64, sum decimal.Decimal, updatedAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if f.store.failUpdateSum != nil {
		return f.store.failUpdateSum
	}
	c, ok := f.store.carts[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("cart with id %d not found", id))
	}
	c.Sum = sum
	c.UpdatedAt = updatedAt
	f.store.carts[id] = c
	return nil
}

func (f *fakeCarts) UpdateState(ctx context.Context, tx *sql.Tx, id int64, state domain.CartState, updatedAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	c, ok := f.store.carts[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("cart with id %d not found", id))
	}
	c.State = state
	c.UpdatedAt = updatedAt
	f.store.carts[id] = c
	return nil
}

type fakeLines struct{ store *memStore }

func (f *fakeLines) FindByID(ctx context.Context, tx *sql.Tx, id int64) (*domain.CartLine, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	l, ok := f.store.lines[id]
	if !ok {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("cart line with id %d not found", id))
	}
	return &l, nil
}

func (f *fakeLines) FindByIDForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*domain.CartLine, error) {
	return f.FindByID(ctx, tx, id)
}

func (f *fakeLines) FindByCartAndProduct(ctx context.Context, tx *sql.Tx, cartID, productID int64) (*domain.CartLine, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	for _, l := range f.store.lines {
		if l.CartID == cartID && l.ProductID == productID {
			l := l
			return &l, nil
		}
	}
	return nil, apperrors.NewNotFoundError("line not found")
}

func (f *fakeLines) Insert(ctx context.Context, tx *sql.Tx, line domain.CartLine) (int64, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.nextLineID++
	line.ID = f.store.nextLineID
	f.store.lines[line.ID] = line
	return line.ID, nil
}

func (f *fakeLines) UpdateQuantity(ctx context.Context, tx *sql.Tx, id int64, quantity int, updatedAt time.Time) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	l, ok := f.store.lines[id]
	if !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("cart line with id %d not found", id))
	}
	l.Quantity = quantity
	l.UpdatedAt = updatedAt
	f.store.lines[id] = l
	return nil
}

func (f *fakeLines) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if _, ok := f.store.lines[id]; !ok {
		return apperrors.NewNotFoundError(fmt.Sprintf("cart line with id %d not found", id))
	}
	delete(f.store.lines, id)
	return nil
}

func (f *fakeLines) ListByCart(ctx context.Context, tx *sql.Tx, cartID int64) ([]domain.CartLineDetail, error) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	lines := []domain.CartLineDetail{}
	for _, l := range f.store.lines {
		if l.CartID != cartID {
			continue
		}
		p := f.store.products[l.ProductID]
		lines = append(lines, domain.CartLineDetail{
			CartLine:     l,
			ProductName:  p.Name,
			ProductPrice: p.Price,
			ProductUnit:  p.Unit,
		})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ID < lines[j].ID })
	return lines, nil
}
