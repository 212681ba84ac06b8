package memorystorage

import (
	"github.com/patric-chuzhbe/jobvocab/internal/db/jsondb"
)

// MemoryStorage is the JSON document store without a backing file.
// Everything is lost when the process exits.
type MemoryStorage struct {
	*jsondb.JSONDB
}

func New() (*MemoryStorage, error) {
	return &MemoryStorage{
		JSONDB: jsondb.NewInMemory(),
	}, nil
}
