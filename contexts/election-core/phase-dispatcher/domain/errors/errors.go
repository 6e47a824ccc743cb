package errors

import "errors"

var (
	ErrStateNotInitialized = errors.New("election state is not initialized")
)
