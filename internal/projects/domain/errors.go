package domain

import "errors"

var (
	ErrNotFound        = errors.New("project not found")
	ErrFileNotFound    = errors.New("file not found")
	ErrFileExists      = errors.New("a file with that path already exists")
	ErrInvalidPath     = errors.New("invalid file path")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownTemplate = errors.New("unknown project template")
	ErrIDExhausted     = errors.New("failed to generate unique project id")
)
