// Package fixture serves product lookups from an in-memory catalog. It backs
// offline runs and tests.
package fixture

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fd1az/fba-sourcing/business/catalog/app"
	"github.com/fd1az/fba-sourcing/business/catalog/domain"
	"github.com/fd1az/fba-sourcing/internal/apperror"
	"github.com/fd1az/fba-sourcing/internal/tabular"
	"github.com/fd1az/fba-sourcing/internal/validate"
)

// Catalog is a read-mostly set of product records.
type Catalog struct {
	source domain.Source

	mu      sync.RWMutex
	byID    map[string]domain.ProductRecord
	ordered []string
}

var _ app.ProductProvider = (*Catalog)(nil)

// New creates an empty catalog reporting the fixture source.
func New(records ...domain.ProductRecord) *Catalog {
	c := &Catalog{
		source: domain.SourceFixture,
		byID:   make(map[string]domain.ProductRecord),
	}
	for _, rec := range records {
		c.Add(rec)
	}
	return c
}

// Load reads a products table, the same layout the pipeline writes.
func Load(r io.Reader) (*Catalog, error) {
	rows, err := tabular.Read(r, tabular.Options{})
	if err != nil {
		return nil, err
	}

	c := New()
	for i, row := range rows {
		rec, err := domain.ProductRecordFromRow(row)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidRow, fmt.Sprintf("fixture row %d", i+2))
		}
		c.Add(rec)
	}
	return c, nil
}

// LoadFile is Load for a path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.New(apperror.CodeTabularReadFailed,
			apperror.WithCause(err),
			apperror.WithContext(path))
	}
	defer f.Close()
	return Load(f)
}

// Add stores rec under its normalized id, replacing any previous entry.
func (c *Catalog) Add(rec domain.ProductRecord) {
	id := validate.NormalizeIdentifier(rec.ID)
	rec.ID = id
	rec.Source = c.source
	rec.Estimated = false

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		c.ordered = append(c.ordered, id)
	}
	c.byID[id] = rec
}

// Len returns the number of records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

func (c *Catalog) Source() domain.Source {
	return c.source
}

func (c *Catalog) FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	rec, ok := c.byID[validate.NormalizeIdentifier(id)]
	c.mu.RUnlock()
	if !ok {
		return nil, domain.NotFound(c.source, id)
	}
	return &rec, nil
}

// FetchByKeyword returns the first record, in insertion order, whose title
// contains every word of text.
func (c *Catalog) FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return nil, domain.NotFound(c.source, text)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, id := range c.ordered {
		rec := c.byID[id]
		if matchesAll(strings.ToLower(rec.Title), words) {
			return &rec, nil
		}
	}
	return nil, domain.NotFound(c.source, text)
}

func matchesAll(title string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(title, w) {
			return false
		}
	}
	return true
}
