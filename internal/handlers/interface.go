package handlers

import (
	"context"

	"github.com/hope-foundation/apiserver/internal/services"
	"github.com/hope-foundation/apiserver/types"
)

// UserService is the account and admin surface used by the auth and admin routes.
type UserService interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	Register(ctx context.Context, in services.RegisterInput) (types.User, error)
	Authenticate(ctx context.Context, identifier, password string) (types.User, error)
	IsAdmin(ctx context.Context, userID int) bool
	Setup(ctx context.Context, userID int, token string) error
	Grant(ctx context.Context, userID int, grantedBy *int) error
	Revoke(ctx context.Context, userID int) error
}

// AdminChecker decides whether a user may use the admin routes.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID int) bool
}

// ResourceService is the CRUD surface shared by events, news and menu items.
type ResourceService[T, In any] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int) (T, error)
	Create(ctx context.Context, in In) (T, error)
	Update(ctx context.Context, id int, in In) (T, error)
	Delete(ctx context.Context, id int) error
}

// MenuService adds reordering to the menu CRUD surface.
type MenuService interface {
	ResourceService[types.MenuItem, services.MenuInput]
	Move(ctx context.Context, id int, direction string) ([]types.MenuItem, error)
	SetOrder(ctx context.Context, ids []int) ([]types.MenuItem, error)
}

type SiteService interface {
	Events(ctx context.Context, limit int) types.SiteEvents
	AllEvents(ctx context.Context) types.SiteEvents
	Event(ctx context.Context, id int) (types.Event, bool, error)
	News(ctx context.Context, f services.NewsFilter) types.SiteNews
	NewsPost(ctx context.Context, id int) (types.NewsPost, bool, error)
	Menu(ctx context.Context) types.SiteMenu
}

type SubscriberService interface {
	Subscribe(ctx context.Context, email string) (types.Subscriber, bool, error)
	List(ctx context.Context, limit, offset int) ([]types.Subscriber, error)
}

type ContactService interface {
	Submit(ctx context.Context, in services.ContactInput) error
}

type DonationService interface {
	CreateOrder(ctx context.Context, in services.CreateOrderInput) (services.OrderResult, error)
	Verify(ctx context.Context, in services.VerifyInput) (types.Donation, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	List(ctx context.Context, limit, offset int) ([]types.Donation, error)
}

type UploadService interface {
	Upload(ctx context.Context, kind string, data []byte) (services.UploadResult, error)
}

type StatsService interface {
	Dashboard(ctx context.Context) types.DashboardStats
}
