package article

import (
	"context"
	"net/http"

	"newsletter-curator/internal/domain/entity"
)

// Reader is the article query service.
type Reader interface {
	List(ctx context.Context, interestID int64, limit int) ([]*entity.Article, error)
	Get(ctx context.Context, id int64) (*entity.Article, error)
}

// Register registers the article routes behind authz.
func Register(mux *http.ServeMux, svc Reader, authz func(http.Handler) http.Handler) {
	mux.Handle("GET /articles", authz(ListHandler{svc}))
	mux.Handle("GET /articles/{id}", authz(GetHandler{svc}))
}
