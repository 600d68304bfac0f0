package ingest

import "errors"

var (
	ErrInvalidPage = errors.New("invalid page path")

	ErrInvalidTimestamp = errors.New("invalid timestamp")
)
