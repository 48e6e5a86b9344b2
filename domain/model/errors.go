package model

import "errors"

var (
	// ErrDuplicateColumnName is returned when a dataset contains duplicate column names
	ErrDuplicateColumnName = errors.New("duplicate column name")

	// ErrNoColumns is returned when a dataset has no header
	ErrNoColumns = errors.New("dataset has no columns")

	// ErrInvalidResponseFormat is returned when a model response carries neither marker pair
	ErrInvalidResponseFormat = errors.New("invalid response format")

	// ErrMissingKey is returned when a template references a key absent from the dictionary
	ErrMissingKey = errors.New("missing template key")
)
