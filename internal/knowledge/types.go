// Package knowledge manages product documentation fragments with
// vector similarity search backed by PostgreSQL + pgvector.
package knowledge

import "time"

// Document is a stored documentation fragment.
type Document struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Fragment is one ranked retrieval result.
type Fragment struct {
	ID         string  `json:"id"`
	Path       string  `json:"path"`
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
