package errors

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmbeddingService  = errors.New("embedding service error")
	ErrGenerationService = errors.New("generation service error")
	ErrFetch             = errors.New("fetch failed")
)

func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsEmbeddingService(err error) bool {
	return errors.Is(err, ErrEmbeddingService)
}

func IsGenerationService(err error) bool {
	return errors.Is(err, ErrGenerationService)
}

func IsFetch(err error) bool {
	return errors.Is(err, ErrFetch)
}
