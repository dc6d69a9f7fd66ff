package entity

import "time"

// Newsletter is a generated digest for one user. It is written once and never updated;
// ArticleIDs is the snapshot of articles linked at generation time.
type Newsletter struct {
	ID             int64
	UserID         int64
	GenerationDate time.Time
	Content        string
	ArticleIDs     []int64
}

// User is the read-only view of an account owned by the external auth system.
type User struct {
	ID       int64
	Username string
	Email    string
	IsActive bool
}
