package interest

import (
	"errors"
	"net/http"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/pathutil"
	"newsletter-curator/internal/handler/http/respond"
	intUC "newsletter-curator/internal/usecase/interest"
)

type ListHandler struct{ Svc Registry }

// ServeHTTP lists every registered interest.
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	list, err := h.Svc.List(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(list))
}

type GetHandler struct{ Svc Registry }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := pathutil.ID(r, "id")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	in, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		code := http.StatusInternalServerError
		var ve *entity.ValidationError
		switch {
		case errors.As(err, &ve):
			code = http.StatusBadRequest
		case errors.Is(err, intUC.ErrInterestNotFound):
			code = http.StatusNotFound
		}
		respond.SafeError(w, code, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTO(in))
}
