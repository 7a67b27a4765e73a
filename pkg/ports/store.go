package ports

import "context"

// CircuitStore persists encoded circuit documents.
type CircuitStore interface {
	// Save stores the document under name, replacing any previous version.
	Save(ctx context.Context, name string, doc []byte) error

	// Load returns the document stored under name.
	// Returns domain.ErrCircuitNotFound if there is none.
	Load(ctx context.Context, name string) ([]byte, error)

	// Delete removes the document. Deleting a missing document is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the names of the stored documents.
	List(ctx context.Context) ([]string, error)
}
