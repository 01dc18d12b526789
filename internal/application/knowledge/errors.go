package knowledge

import "errors"

var (
	// ErrIndexEmpty means the knowledge index holds no chunks; querying
	// before ingestion is a recoverable condition, not a crash.
	ErrIndexEmpty = errors.New("knowledge index is empty")

	// ErrVectorDisabled means the vector index or embedder is not
	// configured.
	ErrVectorDisabled = errors.New("vector retrieval is disabled")
)
