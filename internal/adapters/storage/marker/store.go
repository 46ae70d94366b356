// Package marker stores small persistent flags such as the per-article
// newsletter idempotency marker.
package marker

import "context"

// Store is a string key/value store where keys are only ever added.
type Store interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key, value string) error
}
