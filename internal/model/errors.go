package model

import "github.com/pkg/errors"

var (
	ErrUnsupportedLink      = errors.New("unsupported link")
	ErrDownloadFailure      = errors.New("download failure")
	ErrSizeExceeded         = errors.New("size limit exceeded")
	ErrTransportFailure     = errors.New("transport failure")
	ErrConfigurationMissing = errors.New("configuration missing")

	ErrIllegalTransition = errors.New("illegal state transition")
	ErrRateLimited       = errors.New("too many requests from chat")
	ErrCacheMiss         = errors.New("file id not cached")
)
