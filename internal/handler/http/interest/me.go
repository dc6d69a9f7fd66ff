package interest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/auth"
	"newsletter-curator/internal/handler/http/respond"
	subUC "newsletter-curator/internal/usecase/subscription"
)

var errUnauthenticated = errors.New("unauthorized: no user in request")

// MyListHandler lists the authenticated user's interests.
type MyListHandler struct{ Svc Subscriptions }

func (h MyListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}
	list, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, toDTOs(list))
}

// UpdateHandler adds and removes subscriptions atomically. An unknown
// interest id rejects the whole request with 400 and changes nothing.
type UpdateHandler struct{ Svc Subscriptions }

func (h UpdateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		respond.SafeError(w, http.StatusUnauthorized, errUnauthenticated)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	upd, err := h.Svc.Update(r.Context(), userID, req.AddInterests, req.RemoveInterests)
	if err != nil {
		var missing *subUC.MissingInterestError
		var ve *entity.ValidationError
		switch {
		case errors.As(err, &missing):
			respond.JSON(w, http.StatusBadRequest, map[string]string{"error": missing.Error()})
		case errors.As(err, &ve):
			respond.SafeError(w, http.StatusBadRequest, err)
		default:
			respond.SafeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	respond.JSON(w, http.StatusOK, UpdateResponse{
		Message:          fmt.Sprintf("Successfully added %d interests and removed %d interests.", upd.Added, upd.Removed),
		Added:            upd.Added,
		Removed:          upd.Removed,
		CurrentInterests: toDTOs(upd.Interests),
	})
}
