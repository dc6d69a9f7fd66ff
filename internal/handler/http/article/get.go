package article

import (
	"errors"
	"net/http"

	"newsletter-curator/internal/handler/http/pathutil"
	"newsletter-curator/internal/handler/http/respond"
	artUC "newsletter-curator/internal/usecase/article"
)

type GetHandler struct{ Svc Reader }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, artUC.ErrInvalidArticleID) {
			code = http.StatusBadRequest
		} else if errors.Is(err, artUC.ErrArticleNotFound) {
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(a))
}
