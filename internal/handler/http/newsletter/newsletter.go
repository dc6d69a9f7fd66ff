// Package newsletter provides HTTP handlers for reading the authenticated
// user's generated newsletters.
package newsletter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/auth"
	"newsletter-curator/internal/handler/http/pathutil"
	"newsletter-curator/internal/handler/http/respond"
	nlUC "newsletter-curator/internal/usecase/newsletter"
)

var errUnauthenticated = errors.New("unauthorized: no user in request")

// Reader is implemented by newsletter.Composer.
type Reader interface {
	List(ctx context.Context, userID int64, limit int) ([]*entity.Newsletter, error)
	Get(ctx context.Context, userID, id int64) (*entity.Newsletter, error)
}

// DTO represents the JSON structure for newsletter data transfer.
type DTO struct {
	ID             int64     `json:"id"`
	GenerationDate time.Time `json:"generation_date"`
	Content        string    `json:"content"`
	ArticleIDs     []int64   `json:"article_ids"`
}

func toDTO(n *entity.Newsletter) DTO {
	ids := n.ArticleIDs
	if ids == nil {
		ids = []int64{}
	}
	return DTO{ID: n.ID, GenerationDate: n.GenerationDate, Content: n.Content, ArticleIDs: ids}
}

// Register registers the newsletter routes behind authz.
func Register(mux *http.ServeMux, svc Reader, authz func(http.Handler) http.Handler) {
	mux.Handle("GET /me/newsletters", authz(ListHandler{svc}))
	mux.Handle("GET /me/newsletters/{id}", authz(GetHandler{svc}))
}

type ListHandler struct{ Svc Reader }

// ServeHTTP lists newsletters newest first. Query: limit (optional).
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			respond.SafeError(w, http.StatusBadRequest, errors.New("invalid limit"))
			return
		}
		limit = n
	}

	list, err := h.Svc.List(r.Context(), userID, limit)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]DTO, 0, len(list))
	for _, n := range list {
		out = append(out, toDTO(n))
	}
	respond.JSON(w, http.StatusOK, out)
}

type GetHandler struct{ Svc Reader }

// ServeHTTP answers 404 for newsletters owned by someone else.
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	n, err := h.Svc.Get(r.Context(), userID, id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, nlUC.ErrNewsletterNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(n))
}
