package interest

import (
	"context"
	"net/http"

	"newsletter-curator/internal/domain/entity"
	subUC "newsletter-curator/internal/usecase/subscription"
)

// Registry is the read side of the interest registry.
type Registry interface {
	List(ctx context.Context) ([]*entity.Interest, error)
	Get(ctx context.Context, id int64) (*entity.Interest, error)
}

// Subscriptions reads and updates a user's interests.
type Subscriptions interface {
	List(ctx context.Context, userID int64) ([]*entity.Interest, error)
	Update(ctx context.Context, userID int64, add, remove []int64) (subUC.Update, error)
}

// Register mounts the interest routes. The /me routes are wrapped with authz.
func Register(mux *http.ServeMux, reg Registry, subs Subscriptions, authz func(http.Handler) http.Handler) {
	mux.Handle("GET /interests", ListHandler{reg})
	mux.Handle("GET /interests/{id}", GetHandler{reg})
	mux.Handle("GET /me/interests", authz(MyListHandler{subs}))
	mux.Handle("POST /me/interests", authz(UpdateHandler{subs}))
}
