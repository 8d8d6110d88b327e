package httpparser

import "errors"

var (
	errEmptyChunkSize    = errors.New("httpparser: empty chunk size")
	errInvalidChunkSize  = errors.New("httpparser: invalid byte in chunk size")
	errChunkSizeTooLarge = errors.New("httpparser: chunk size too large")
)
