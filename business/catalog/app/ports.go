// Package app contains the enrichment resolver and its provider port.
package app

import (
	"context"

	"github.com/fd1az/fba-sourcing/business/catalog/domain"
)

// ProductProvider performs single lookups against one data source. A call
// returns either a record or an error; failures should be *domain.FetchError
// but any error is treated as "no data".
type ProductProvider interface {
	Source() domain.Source
	FetchByIdentifier(ctx context.Context, id string) (*domain.ProductRecord, error)
	FetchByKeyword(ctx context.Context, text string) (*domain.ProductRecord, error)
}

// QuotaAware is implemented by providers whose calls already pass through a
// shared rate limiter. The resolver skips its per-worker pause for them.
type QuotaAware interface {
	SharedQuota() bool
}
