package analysis

import "context"

// ChatCompleter sends one system+user exchange to an LLM and returns the reply text.
type ChatCompleter interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
}

// Archive persists finished analyses.
type Archive interface {
	Save(ctx context.Context, r *Record) error
}

// Lister is implemented by archives that can page back through saved records.
type Lister interface {
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}
