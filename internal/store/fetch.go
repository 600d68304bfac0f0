package store

import (
	"context"

	"go.uber.org/zap"
)

const defaultPageSize = 1000

// PageFunc fetches one page of rows ordered descending by timestamp.
type PageFunc[T any] func(ctx context.Context, limit, offset int) ([]T, error)

// FetchAll accumulates pages until a page comes back shorter than
// pageSize (the final partial page is still appended) or, when max > 0,
// until at least max rows have been gathered.
//
// A page error stops the scan: the partial accumulator is returned
// together with the error, and a warning is logged. Callers decide
// whether partial data is good enough.
func FetchAll[T any](ctx context.Context, pageSize, max int, table string, logger *zap.Logger, page PageFunc[T]) ([]T, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var all []T
	for offset := 0; ; offset += pageSize {
		rows, err := page(ctx, pageSize, offset)
		if err != nil {
			logger.Warn("Page fetch failed, keeping partial result",
				zap.String("table", table),
				zap.Int("offset", offset),
				zap.Int("rows_gathered", len(all)),
				zap.Error(err),
			)
			return all, err
		}

		all = append(all, rows...)

		if len(rows) < pageSize {
			break
		}
		if max > 0 && len(all) >= max {
			break
		}
	}

	return all, nil
}
