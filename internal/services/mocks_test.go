package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hope-foundation/apiserver/internal/cache"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/payment"
	"github.com/hope-foundation/apiserver/types"
	"github.com/stretchr/testify/mock"
)

var newNoopLogger = logging.Discard

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) GetByID(ctx context.Context, id int) (types.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserRepoMock) GetByUsername(ctx context.Context, username string) (types.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserRepoMock) GetByEmail(ctx context.Context, email string) (types.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserRepoMock) Create(ctx context.Context, user types.User) (types.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user types.User) (types.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(types.User), args.Error(1)
}

type AdminRepoMock struct{ mock.Mock }

func (m *AdminRepoMock) IsAdmin(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *AdminRepoMock) Grant(ctx context.Context, userID int, grantedBy *int) error {
	return m.Called(ctx, userID, grantedBy).Error(0)
}

func (m *AdminRepoMock) Revoke(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *AdminRepoMock) GrantIfNone(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type EventRepoMock struct{ mock.Mock }

func (m *EventRepoMock) List(ctx context.Context) ([]types.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Event), args.Error(1)
}

func (m *EventRepoMock) ListUpcoming(ctx context.Context, from time.Time, limit int) ([]types.Event, error) {
	args := m.Called(ctx, from, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Event), args.Error(1)
}

func (m *EventRepoMock) Get(ctx context.Context, id int) (types.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Event), args.Error(1)
}

func (m *EventRepoMock) Create(ctx context.Context, event types.Event) (types.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(types.Event), args.Error(1)
}

func (m *EventRepoMock) Update(ctx context.Context, event types.Event) (types.Event, error) {
	args := m.Called(ctx, event)
	return args.Get(0).(types.Event), args.Error(1)
}

func (m *EventRepoMock) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *EventRepoMock) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type NewsRepoMock struct{ mock.Mock }

func (m *NewsRepoMock) List(ctx context.Context) ([]types.NewsPost, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.NewsPost), args.Error(1)
}

func (m *NewsRepoMock) Get(ctx context.Context, id int) (types.NewsPost, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.NewsPost), args.Error(1)
}

func (m *NewsRepoMock) Create(ctx context.Context, post types.NewsPost) (types.NewsPost, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(types.NewsPost), args.Error(1)
}

func (m *NewsRepoMock) Update(ctx context.Context, post types.NewsPost) (types.NewsPost, error) {
	args := m.Called(ctx, post)
	return args.Get(0).(types.NewsPost), args.Error(1)
}

func (m *NewsRepoMock) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *NewsRepoMock) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MenuRepoMock struct{ mock.Mock }

func (m *MenuRepoMock) List(ctx context.Context) ([]types.MenuItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MenuItem), args.Error(1)
}

func (m *MenuRepoMock) Get(ctx context.Context, id int) (types.MenuItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.MenuItem), args.Error(1)
}

func (m *MenuRepoMock) Create(ctx context.Context, item types.MenuItem) (types.MenuItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(types.MenuItem), args.Error(1)
}

func (m *MenuRepoMock) Update(ctx context.Context, item types.MenuItem) (types.MenuItem, error) {
	args := m.Called(ctx, item)
	return args.Get(0).(types.MenuItem), args.Error(1)
}

func (m *MenuRepoMock) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

// memoryMenu applies order plans to an in-memory list, all or nothing.
type memoryMenu struct {
	MenuRepoMock
	items []types.MenuItem
}

func (m *memoryMenu) ApplyOrder(_ context.Context, plan func([]types.MenuItem) (map[int]int, error)) ([]types.MenuItem, error) {
	snapshot := sortedMenu(m.items)
	positions, err := plan(snapshot)
	if err != nil {
		return nil, err
	}
	next := make([]types.MenuItem, len(m.items))
	copy(next, m.items)
	for i := range next {
		if p, ok := positions[next[i].ID]; ok {
			next[i].Order = p
		}
	}
	m.items = next
	return sortedMenu(m.items), nil
}

func (m *MenuRepoMock) ApplyOrder(ctx context.Context, plan func([]types.MenuItem) (map[int]int, error)) ([]types.MenuItem, error) {
	args := m.Called(ctx, plan)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MenuItem), args.Error(1)
}

type SubscriberRepoMock struct{ mock.Mock }

func (m *SubscriberRepoMock) Upsert(ctx context.Context, email string) (types.Subscriber, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(types.Subscriber), args.Bool(1), args.Error(2)
}

func (m *SubscriberRepoMock) List(ctx context.Context, limit, offset int) ([]types.Subscriber, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Subscriber), args.Error(1)
}

func (m *SubscriberRepoMock) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) Create(ctx context.Context, order types.PaymentOrder) (types.PaymentOrder, error) {
	args := m.Called(ctx, order)
	return args.Get(0).(types.PaymentOrder), args.Error(1)
}

func (m *OrderRepoMock) Get(ctx context.Context, orderID string) (types.PaymentOrder, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).(types.PaymentOrder), args.Error(1)
}

func (m *OrderRepoMock) MarkFailed(ctx context.Context, orderID string) error {
	return m.Called(ctx, orderID).Error(0)
}

func (m *OrderRepoMock) ListStale(ctx context.Context, notBefore, notAfter time.Time, limit int) ([]types.PaymentOrder, error) {
	args := m.Called(ctx, notBefore, notAfter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.PaymentOrder), args.Error(1)
}

type DonationRepoMock struct{ mock.Mock }

func (m *DonationRepoMock) List(ctx context.Context, limit, offset int) ([]types.Donation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Donation), args.Error(1)
}

func (m *DonationRepoMock) RecordForOrder(ctx context.Context, orderID, paymentID string) (types.Donation, bool, error) {
	args := m.Called(ctx, orderID, paymentID)
	return args.Get(0).(types.Donation), args.Bool(1), args.Error(2)
}

func (m *DonationRepoMock) Totals(ctx context.Context) (int, int64, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Get(1).(int64), args.Error(2)
}

type ProviderMock struct{ mock.Mock }

func (m *ProviderMock) KeyID() string {
	return m.Called().String(0)
}

func (m *ProviderMock) CreateOrder(ctx context.Context, params payment.CreateOrderRequest) (payment.Order, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(payment.Order), args.Error(1)
}

func (m *ProviderMock) FetchPayment(ctx context.Context, paymentID string) (payment.Payment, error) {
	args := m.Called(ctx, paymentID)
	return args.Get(0).(payment.Payment), args.Error(1)
}

func (m *ProviderMock) FetchOrderPayments(ctx context.Context, orderID string) ([]payment.Payment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Payment), args.Error(1)
}

func (m *ProviderMock) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return m.Called(orderID, paymentID, signature).Bool(0)
}

func (m *ProviderMock) VerifyWebhookSignature(body []byte, signature string) bool {
	return m.Called(body, signature).Bool(0)
}

type PublisherMock struct{ mock.Mock }

func (m *PublisherMock) PublishJSON(ctx context.Context, channel string, v any) (string, error) {
	args := m.Called(ctx, channel, v)
	return args.String(0), args.Error(1)
}

type InvalidatorMock struct{ mock.Mock }

func (m *InvalidatorMock) Invalidate(ctx context.Context, collection string) {
	m.Called(ctx, collection)
}

type ReleaserMock struct{ mock.Mock }

func (m *ReleaserMock) Release(ctx context.Context, url string) {
	m.Called(ctx, url)
}

type MailerMock struct{ mock.Mock }

func (m *MailerMock) Enabled() bool {
	return m.Called().Bool(0)
}

func (m *MailerMock) SendContact(ctx context.Context, msg types.ContactMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type ImageStoreMock struct{ mock.Mock }

func (m *ImageStoreMock) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return m.Called(ctx, key, r, size, contentType).Error(0)
}

func (m *ImageStoreMock) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *ImageStoreMock) URL(key string) string {
	return "https://cdn.example.org/images/" + key
}

func (m *ImageStoreMock) KeyFromURL(raw string) (string, bool) {
	const base = "https://cdn.example.org/images/"
	if !strings.HasPrefix(raw, base) {
		return "", false
	}
	return strings.TrimPrefix(raw, base), true
}

type ImageRefsMock struct{ mock.Mock }

func (m *ImageRefsMock) InUse(ctx context.Context, url string) (bool, error) {
	args := m.Called(ctx, url)
	return args.Bool(0), args.Error(1)
}

// memoryCache is a map-backed cache.Cache for tests.
type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.items {
		if strings.HasPrefix(k, prefix) {
			delete(c.items, k)
		}
	}
	return nil
}

func (c *memoryCache) Close() error { return nil }

func strPtr(s string) *string { return &s }

func intPtr(i int) *int { return &i }
