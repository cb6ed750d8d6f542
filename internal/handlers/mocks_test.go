package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hope-foundation/apiserver/internal/logging"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/types"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var newNoopLogger = logging.Discard

const testSecret = "test-secret"

type UserServiceMock struct{ mock.Mock }

func (m *UserServiceMock) GetByID(ctx context.Context, id int) (types.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserServiceMock) Register(ctx context.Context, in services.RegisterInput) (types.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserServiceMock) Authenticate(ctx context.Context, identifier, password string) (types.User, error) {
	args := m.Called(ctx, identifier, password)
	return args.Get(0).(types.User), args.Error(1)
}

func (m *UserServiceMock) IsAdmin(ctx context.Context, userID int) bool {
	return m.Called(ctx, userID).Bool(0)
}

func (m *UserServiceMock) Setup(ctx context.Context, userID int, token string) error {
	return m.Called(ctx, userID, token).Error(0)
}

func (m *UserServiceMock) Grant(ctx context.Context, userID int, grantedBy *int) error {
	return m.Called(ctx, userID, grantedBy).Error(0)
}

func (m *UserServiceMock) Revoke(ctx context.Context, userID int) error {
	return m.Called(ctx, userID).Error(0)
}

type EventServiceMock struct{ mock.Mock }

func (m *EventServiceMock) List(ctx context.Context) ([]types.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Event), args.Error(1)
}

func (m *EventServiceMock) Get(ctx context.Context, id int) (types.Event, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Event), args.Error(1)
}

func (m *EventServiceMock) Create(ctx context.Context, in services.EventInput) (types.Event, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(types.Event), args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, id int, in services.EventInput) (types.Event, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(types.Event), args.Error(1)
}

func (m *EventServiceMock) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MenuServiceMock struct{ mock.Mock }

func (m *MenuServiceMock) List(ctx context.Context) ([]types.MenuItem, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MenuItem), args.Error(1)
}

func (m *MenuServiceMock) Get(ctx context.Context, id int) (types.MenuItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.MenuItem), args.Error(1)
}

func (m *MenuServiceMock) Create(ctx context.Context, in services.MenuInput) (types.MenuItem, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(types.MenuItem), args.Error(1)
}

func (m *MenuServiceMock) Update(ctx context.Context, id int, in services.MenuInput) (types.MenuItem, error) {
	args := m.Called(ctx, id, in)
	return args.Get(0).(types.MenuItem), args.Error(1)
}

func (m *MenuServiceMock) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MenuServiceMock) Move(ctx context.Context, id int, direction string) ([]types.MenuItem, error) {
	args := m.Called(ctx, id, direction)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MenuItem), args.Error(1)
}

func (m *MenuServiceMock) SetOrder(ctx context.Context, ids []int) ([]types.MenuItem, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.MenuItem), args.Error(1)
}

type SiteServiceMock struct{ mock.Mock }

func (m *SiteServiceMock) Events(ctx context.Context, limit int) types.SiteEvents {
	return m.Called(ctx, limit).Get(0).(types.SiteEvents)
}

func (m *SiteServiceMock) AllEvents(ctx context.Context) types.SiteEvents {
	return m.Called(ctx).Get(0).(types.SiteEvents)
}

func (m *SiteServiceMock) Event(ctx context.Context, id int) (types.Event, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.Event), args.Bool(1), args.Error(2)
}

func (m *SiteServiceMock) News(ctx context.Context, f services.NewsFilter) types.SiteNews {
	return m.Called(ctx, f).Get(0).(types.SiteNews)
}

func (m *SiteServiceMock) NewsPost(ctx context.Context, id int) (types.NewsPost, bool, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(types.NewsPost), args.Bool(1), args.Error(2)
}

func (m *SiteServiceMock) Menu(ctx context.Context) types.SiteMenu {
	return m.Called(ctx).Get(0).(types.SiteMenu)
}

type SubscriberServiceMock struct{ mock.Mock }

func (m *SubscriberServiceMock) Subscribe(ctx context.Context, email string) (types.Subscriber, bool, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(types.Subscriber), args.Bool(1), args.Error(2)
}

func (m *SubscriberServiceMock) List(ctx context.Context, limit, offset int) ([]types.Subscriber, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Subscriber), args.Error(1)
}

type ContactServiceMock struct{ mock.Mock }

func (m *ContactServiceMock) Submit(ctx context.Context, in services.ContactInput) error {
	return m.Called(ctx, in).Error(0)
}

type DonationServiceMock struct{ mock.Mock }

func (m *DonationServiceMock) CreateOrder(ctx context.Context, in services.CreateOrderInput) (services.OrderResult, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(services.OrderResult), args.Error(1)
}

func (m *DonationServiceMock) Verify(ctx context.Context, in services.VerifyInput) (types.Donation, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(types.Donation), args.Error(1)
}

func (m *DonationServiceMock) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	return m.Called(ctx, body, signature).Error(0)
}

func (m *DonationServiceMock) List(ctx context.Context, limit, offset int) ([]types.Donation, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Donation), args.Error(1)
}

type UploadServiceMock struct{ mock.Mock }

func (m *UploadServiceMock) Upload(ctx context.Context, kind string, data []byte) (services.UploadResult, error) {
	args := m.Called(ctx, kind, data)
	return args.Get(0).(services.UploadResult), args.Error(1)
}

type StatsServiceMock struct{ mock.Mock }

func (m *StatsServiceMock) Dashboard(ctx context.Context) types.DashboardStats {
	return m.Called(ctx).Get(0).(types.DashboardStats)
}

// adminChain returns the auth and admin middleware for users.
func adminChain(users AdminChecker) chi.Middlewares {
	return chi.Middlewares{RequireAuth(testSecret), RequireAdmin(users)}
}

func bearer(t *testing.T, userID int) string {
	t.Helper()
	token, err := issueToken(userID, []byte(testSecret), defaultTokenTTL)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	if s, ok := v.(string); ok {
		return bytes.NewReader([]byte(s))
	}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(data)
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}
