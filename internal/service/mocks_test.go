package service

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// memStore is the shared state behind the mock repositories. A single mutex
// guards every map so individual operations are atomic, mirroring the
// per-statement atomicity of the real database.
type memStore struct {
	mu        sync.Mutex
	products  map[uuid.UUID]*domain.Product
	carts     map[uuid.UUID]*domain.Cart                    // keyed by user ID
	cartItems map[uuid.UUID]map[uuid.UUID]*domain.CartItem  // cart ID -> product ID -> item
	orders    map[uuid.UUID]*domain.Order
	reviews   map[uuid.UUID]*domain.Review
}

func newMemStore() *memStore {
	return &memStore{
		products:  make(map[uuid.UUID]*domain.Product),
		carts:     make(map[uuid.UUID]*domain.Cart),
		cartItems: make(map[uuid.UUID]map[uuid.UUID]*domain.CartItem),
		orders:    make(map[uuid.UUID]*domain.Order),
		reviews:   make(map[uuid.UUID]*domain.Review),
	}
}

type storeSnapshot struct {
	products  map[uuid.UUID]*domain.Product
	carts     map[uuid.UUID]*domain.Cart
	cartItems map[uuid.UUID]map[uuid.UUID]*domain.CartItem
	orders    map[uuid.UUID]*domain.Order
	reviews   map[uuid.UUID]*domain.Review
}

func (s *memStore) snapshot() storeSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := storeSnapshot{
		products:  make(map[uuid.UUID]*domain.Product, len(s.products)),
		carts:     make(map[uuid.UUID]*domain.Cart, len(s.carts)),
		cartItems: make(map[uuid.UUID]map[uuid.UUID]*domain.CartItem, len(s.cartItems)),
		orders:    make(map[uuid.UUID]*domain.Order, len(s.orders)),
		reviews:   make(map[uuid.UUID]*domain.Review, len(s.reviews)),
	}
	for id, p := range s.products {
		cp := *p
		snap.products[id] = &cp
	}
	for id, c := range s.carts {
		cp := *c
		snap.carts[id] = &cp
	}
	for cartID, items := range s.cartItems {
		cpItems := make(map[uuid.UUID]*domain.CartItem, len(items))
		for pid, it := range items {
			cp := *it
			cpItems[pid] = &cp
		}
		snap.cartItems[cartID] = cpItems
	}
	for id, o := range s.orders {
		cp := *o
		cp.Items = append([]domain.OrderItem(nil), o.Items...)
		snap.orders[id] = &cp
	}
	for id, rv := range s.reviews {
		cp := *rv
		snap.reviews[id] = &cp
	}
	return snap
}

func (s *memStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = snap.products
	s.carts = snap.carts
	s.cartItems = snap.cartItems
	s.orders = snap.orders
	s.reviews = snap.reviews
}

// mockUnitOfWork serializes whole transactions and rolls the store back to
// its pre-transaction state when the callback fails, giving the tests real
// all-or-nothing semantics.
type mockUnitOfWork struct {
	txMu  sync.Mutex
	store *memStore
	repos *repository.Repositories
}

func newMockUnitOfWork(store *memStore) *mockUnitOfWork {
	return &mockUnitOfWork{store: store, repos: newMockRepositories(store)}
}

func (u *mockUnitOfWork) Execute(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	u.txMu.Lock()
	defer u.txMu.Unlock()

	snap := u.store.snapshot()
	if err := fn(u.repos); err != nil {
		u.store.restore(snap)
		return err
	}
	return nil
}

func newMockRepositories(store *memStore) *repository.Repositories {
	return &repository.Repositories{
		Products: &mockProductRepository{store: store},
		Carts:    &mockCartRepository{store: store},
		Orders:   &mockOrderRepository{store: store},
		Reviews:  &mockReviewRepository{store: store},
	}
}

// --- products ---

type mockProductRepository struct {
	store *memStore
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *product
	m.store.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) ReserveStock(ctx context.Context, id uuid.UUID, qty int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < qty {
		return &domain.InsufficientStockError{ProductID: id, Available: p.Stock, Requested: qty}
	}
	p.Stock -= qty
	return nil
}

func (m *mockProductRepository) ReleaseStock(ctx context.Context, id uuid.UUID, qty int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Stock += qty
	return nil
}

func (m *mockProductRepository) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, reviewCount int) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	p, ok := m.store.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Rating = rating
	p.ReviewCount = reviewCount
	return nil
}

// --- carts ---

type mockCartRepository struct {
	store *memStore
}

func (m *mockCartRepository) Create(ctx context.Context, cart *domain.Cart) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *cart
	m.store.carts[cart.UserID] = &cp
	m.store.cartItems[cart.ID] = make(map[uuid.UUID]*domain.CartItem)
	return nil
}

func (m *mockCartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	c, ok := m.store.carts[userID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCartRepository) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*domain.CartItem, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	items, ok := m.store.cartItems[cartID]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	it, ok := items[productID]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockCartRepository) UpsertItem(ctx context.Context, item *domain.CartItem) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	items, ok := m.store.cartItems[item.CartID]
	if !ok {
		items = make(map[uuid.UUID]*domain.CartItem)
		m.store.cartItems[item.CartID] = items
	}
	if existing, ok := items[item.ProductID]; ok {
		existing.Quantity = item.Quantity
		existing.UpdatedAt = time.Now()
		return nil
	}
	cp := *item
	items[item.ProductID] = &cp
	return nil
}

func (m *mockCartRepository) DeleteItem(ctx context.Context, cartID, productID uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	items, ok := m.store.cartItems[cartID]
	if !ok {
		return domain.ErrCartItemNotFound
	}
	if _, ok := items[productID]; !ok {
		return domain.ErrCartItemNotFound
	}
	delete(items, productID)
	return nil
}

func (m *mockCartRepository) ListLines(ctx context.Context, cartID uuid.UUID) ([]domain.CartLine, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	lines := []domain.CartLine{}
	for pid, it := range m.store.cartItems[cartID] {
		p, ok := m.store.products[pid]
		if !ok {
			continue
		}
		lines = append(lines, domain.CartLine{
			ProductID: pid,
			Name:      p.Name,
			UnitPrice: p.Price,
			ImageURL:  p.ImageURL,
			Stock:     p.Stock,
			Quantity:  it.Quantity,
			LineTotal: p.Price * float64(it.Quantity),
		})
	}
	return lines, nil
}

func (m *mockCartRepository) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	m.store.cartItems[cartID] = make(map[uuid.UUID]*domain.CartItem)
	return nil
}

// --- orders ---

type mockOrderRepository struct {
	store *memStore
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	cp := *order
	cp.Items = append([]domain.OrderItem(nil), order.Items...)
	m.store.orders[order.ID] = &cp
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	o, ok := m.store.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp, nil
}

func (m *mockOrderRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	orders := []domain.Order{}
	for _, o := range m.store.orders {
		if o.UserID == userID {
			cp := *o
			cp.Items = append([]domain.OrderItem(nil), o.Items...)
			orders = append(orders, cp)
		}
	}
	return orders, nil
}

func (m *mockOrderRepository) UpdateState(ctx context.Context, order *domain.Order) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	stored, ok := m.store.orders[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	stored.Status = order.Status
	stored.IsPaid = order.IsPaid
	stored.PaidAt = order.PaidAt
	stored.IsDelivered = order.IsDelivered
	stored.DeliveredAt = order.DeliveredAt
	return nil
}

// --- reviews ---

type mockReviewRepository struct {
	store *memStore
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, rv := range m.store.reviews {
		if rv.ProductID == review.ProductID && rv.UserID == review.UserID {
			return domain.ErrDuplicateReview
		}
	}
	cp := *review
	m.store.reviews[review.ID] = &cp
	return nil
}

func (m *mockReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	rv, ok := m.store.reviews[id]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	cp := *rv
	return &cp, nil
}

func (m *mockReviewRepository) ExistsForUserAndProduct(ctx context.Context, productID, userID uuid.UUID) (bool, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	for _, rv := range m.store.reviews {
		if rv.ProductID == productID && rv.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	if _, ok := m.store.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(m.store.reviews, id)
	return nil
}

func (m *mockReviewRepository) AggregateForProduct(ctx context.Context, productID uuid.UUID) (float64, int, error) {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()
	var sum, count int
	for _, rv := range m.store.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}

// --- test environment ---

type testEnv struct {
	store   *memStore
	repos   *repository.Repositories
	uow     *mockUnitOfWork
	carts   CartService
	orders  OrderService
	reviews ReviewService
}

func newTestEnv() *testEnv {
	store := newMemStore()
	repos := newMockRepositories(store)
	uow := newMockUnitOfWork(store)
	return &testEnv{
		store:   store,
		repos:   repos,
		uow:     uow,
		carts:   NewCartService(repos, uow),
		orders:  NewOrderService(repos, uow),
		reviews: NewReviewService(repos, uow),
	}
}

func (e *testEnv) addProduct(name string, price float64, stock int) *domain.Product {
	p := &domain.Product{
		ID:        uuid.New(),
		Name:      name,
		Price:     price,
		ImageURL:  "/images/" + name + ".jpg",
		Stock:     stock,
		Rating:    domain.DefaultRating,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	_ = e.repos.Products.Create(context.Background(), p)
	return p
}

func (e *testEnv) stockOf(id uuid.UUID) int {
	p, err := e.repos.Products.FindByID(context.Background(), id)
	if err != nil {
		return -1
	}
	return p.Stock
}
