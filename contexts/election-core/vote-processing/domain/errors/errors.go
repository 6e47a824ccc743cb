package errors

import "errors"

var (
	ErrQuestionRequired = errors.New("question id is required")
)
