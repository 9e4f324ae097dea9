// Package knowledge is the retrieval collaborator: an append-only store of
// worked examples and formula notes queried for at most a handful of
// nearest neighbors. Retrieval is a best-effort hint for the solver, never
// a correctness dependency.
package knowledge

// #region imports
import (
	"context"
)

// #endregion

// #region types

// Document is one knowledge-base entry. Entries are immutable once written.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Scored is a query hit with its similarity score (higher is closer).
type Scored struct {
	Document
	Score float32
}

// Store is the retrieval interface the pipeline consumes.
type Store interface {
	Add(ctx context.Context, docs []Document) error
	Query(ctx context.Context, text string, k int) ([]Scored, error)
}

// #endregion
