// Package store loads and saves a whole book from either the books directory
// or a SQL database.
package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/coopbooks/coopbooks/internal/model"
)

// Source reads and writes a complete book snapshot.
type Source interface {
	Load(ctx context.Context) (*model.Book, error)
	Save(ctx context.Context, book *model.Book) error
	Close() error
}

// Open returns a SQLSource when dsn is set and a DirSource over booksDir otherwise.
func Open(ctx context.Context, booksDir, dsn string) (Source, error) {
	if strings.TrimSpace(dsn) == "" {
		return NewDirSource(booksDir), nil
	}
	src, err := OpenSQL(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return src, nil
}
