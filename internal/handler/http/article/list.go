package article

import (
	"errors"
	"net/http"
	"strconv"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/respond"
)

type ListHandler struct{ Svc Reader }

// ServeHTTP lists articles newest first.
// Query: interest_id (optional) restricts to one topic, limit (optional).
func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	interestID, err := optionalInt(q.Get("interest_id"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid interest_id"))
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, errors.New("invalid limit"))
		return
	}

	list, err := h.Svc.List(r.Context(), interestID, int(limit))
	if err != nil {
		code := http.StatusInternalServerError
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	out := make([]DTO, 0, len(list))
	for _, a := range list {
		out = append(out, toDTO(a))
	}
	respond.JSON(w, http.StatusOK, out)
}

func optionalInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
