package index

import "errors"

var (
	// ErrEmptyCorpus means ingestion produced no chunks to index.
	ErrEmptyCorpus = errors.New("no chunks to index")

	// ErrDimensionMismatch means a vector does not match the index dimension.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreUnreachable means the remote vector store cannot be reached.
	ErrStoreUnreachable = errors.New("vector store unreachable")
)
