package analytics

import "errors"

var (
	ErrInvalidWindow = errors.New("invalid time window")

	ErrEventFetchFailed = errors.New("event fetch failed")
)
