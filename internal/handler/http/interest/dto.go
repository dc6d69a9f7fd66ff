// Package interest provides HTTP handlers for the interest registry and for
// the authenticated user's subscriptions.
package interest

import (
	"time"

	"newsletter-curator/internal/domain/entity"
)

// DTO represents the JSON structure for interest data transfer.
type DTO struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// UpdateRequest is the body of POST /me/interests. Both lists are optional.
type UpdateRequest struct {
	AddInterests    []int64 `json:"add_interests"`
	RemoveInterests []int64 `json:"remove_interests"`
}

// UpdateResponse reports what changed and the resulting subscription set.
type UpdateResponse struct {
	Message          string `json:"message"`
	Added            int    `json:"added"`
	Removed          int    `json:"removed"`
	CurrentInterests []DTO  `json:"current_interests"`
}

func toDTO(in *entity.Interest) DTO {
	return DTO{ID: in.ID, Name: in.Name, Description: in.Description, CreatedAt: in.CreatedAt}
}

func toDTOs(ins []*entity.Interest) []DTO {
	out := make([]DTO, 0, len(ins))
	for _, in := range ins {
		out = append(out, toDTO(in))
	}
	return out
}
