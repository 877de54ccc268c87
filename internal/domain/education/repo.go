package education

import "context"

type Repository interface {
	// List returns active modules in language, optionally narrowed to one
	// category, ordered by category then order_index.
	List(ctx context.Context, language, category string) ([]*Module, error)
	ListAll(ctx context.Context) ([]*Module, error)
}
