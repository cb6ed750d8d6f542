package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/internal/store"
	"github.com/hope-foundation/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newEventRouter(events *EventServiceMock, users *UserServiceMock) chi.Router {
	r := chi.NewRouter()
	EventRouter(r, events, newNoopLogger(), adminChain(users))
	return r
}

func TestEventRoutes_PublicReads(t *testing.T) {
	events, users := new(EventServiceMock), new(UserServiceMock)
	date := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	events.On("List", mock.Anything).Return([]types.Event{{ID: 1, Title: "Gala", Date: date}}, nil).Once()
	events.On("Get", mock.Anything, 1).Return(types.Event{ID: 1, Title: "Gala", Date: date}, nil).Once()
	events.On("Get", mock.Anything, 2).Return(types.Event{}, store.ErrNotFound).Once()
	r := newEventRouter(events, users)

	rr := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]types.Event](t, rr), 1)

	rr = serve(r, httptest.NewRequest(http.MethodGet, "/1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Gala", decode[types.Event](t, rr).Title)

	assert.Equal(t, http.StatusNotFound, serve(r, httptest.NewRequest(http.MethodGet, "/2", nil)).Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, httptest.NewRequest(http.MethodGet, "/abc", nil)).Code)
}

func TestEventRoutes_EmptyListIsArray(t *testing.T) {
	events := new(EventServiceMock)
	events.On("List", mock.Anything).Return(nil, nil).Once()

	rr := serve(newEventRouter(events, new(UserServiceMock)), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestEventRoutes_Writes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		admin      bool
		setupMocks func(m *EventServiceMock)
		wantStatus int
	}{
		{
			name:       "create needs admin",
			method:     http.MethodPost,
			path:       "/",
			body:       map[string]string{"title": "Gala"},
			setupMocks: func(*EventServiceMock) {},
			wantStatus: http.StatusForbidden,
		},
		{
			name:   "create missing field",
			method: http.MethodPost,
			path:   "/",
			body:   map[string]string{"title": "Gala"},
			admin:  true,
			setupMocks: func(m *EventServiceMock) {
				m.On("Create", mock.Anything, mock.Anything).
					Return(types.Event{}, &services.ValidationError{Field: "description", Message: "is required"}).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "create",
			method: http.MethodPost,
			path:   "/",
			body: map[string]string{
				"title": "Gala", "description": "Dinner", "date": "2026-06-01", "location": "Hall",
			},
			admin: true,
			setupMocks: func(m *EventServiceMock) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(in services.EventInput) bool {
					return in.Title != nil && *in.Title == "Gala" && in.ImageURL == nil
				})).Return(types.Event{ID: 9, Title: "Gala"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:   "update missing",
			method: http.MethodPut,
			path:   "/4",
			body:   map[string]string{"location": "Park"},
			admin:  true,
			setupMocks: func(m *EventServiceMock) {
				m.On("Update", mock.Anything, 4, mock.Anything).Return(types.Event{}, store.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "delete",
			method: http.MethodDelete,
			path:   "/4",
			admin:  true,
			setupMocks: func(m *EventServiceMock) {
				m.On("Delete", mock.Anything, 4).Return(nil).Once()
			},
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, users := new(EventServiceMock), new(UserServiceMock)
			tt.setupMocks(events)
			users.On("IsAdmin", mock.Anything, 1).Return(tt.admin)

			var req *http.Request
			if tt.body != nil {
				req = httptest.NewRequest(tt.method, tt.path, jsonBody(t, tt.body))
			} else {
				req = httptest.NewRequest(tt.method, tt.path, nil)
			}
			req.Header.Set("Authorization", bearer(t, 1))

			rr := serve(newEventRouter(events, users), req)
			assert.Equal(t, tt.wantStatus, rr.Code)
			events.AssertExpectations(t)
		})
	}
}

func TestMenuRoutes_Reorder(t *testing.T) {
	reordered := []types.MenuItem{{ID: 2, Order: 1}, {ID: 1, Order: 2}}

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		setupMocks func(m *MenuServiceMock)
		wantStatus int
	}{
		{
			name:   "move",
			method: http.MethodPost,
			path:   "/2/move",
			body:   MoveRequest{Direction: services.DirectionUp},
			setupMocks: func(m *MenuServiceMock) {
				m.On("Move", mock.Anything, 2, services.DirectionUp).Return(reordered, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "bad direction",
			method: http.MethodPost,
			path:   "/2/move",
			body:   MoveRequest{Direction: "left"},
			setupMocks: func(m *MenuServiceMock) {
				m.On("Move", mock.Anything, 2, "left").
					Return(nil, &services.ValidationError{Field: "direction", Message: "must be up or down"}).Once()
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "set order",
			method: http.MethodPut,
			path:   "/order",
			body:   OrderRequest{IDs: []int{2, 1}},
			setupMocks: func(m *MenuServiceMock) {
				m.On("SetOrder", mock.Anything, []int{2, 1}).Return(reordered, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			menu, users := new(MenuServiceMock), new(UserServiceMock)
			tt.setupMocks(menu)
			users.On("IsAdmin", mock.Anything, 1).Return(true)
			r := chi.NewRouter()
			MenuRouter(r, menu, newNoopLogger(), adminChain(users))

			req := httptest.NewRequest(tt.method, tt.path, jsonBody(t, tt.body))
			req.Header.Set("Authorization", bearer(t, 1))
			rr := serve(r, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, reordered, decode[[]types.MenuItem](t, rr))
			}
			menu.AssertExpectations(t)
		})
	}
}

func TestMenuRoutes_ReorderNeedsAdmin(t *testing.T) {
	menu := new(MenuServiceMock)
	r := chi.NewRouter()
	MenuRouter(r, menu, newNoopLogger(), adminChain(new(UserServiceMock)))

	req := httptest.NewRequest(http.MethodPut, "/order", jsonBody(t, OrderRequest{IDs: []int{1}}))
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
	menu.AssertNotCalled(t, "SetOrder", mock.Anything, mock.Anything)
}
