package models

import "fmt"

// ErrorType represents different categories of errors
type ErrorType int

const (
	ErrParse ErrorType = iota
	ErrIndexLoad
	ErrConfig
	ErrStore
	ErrFileOp
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrParse:
		return "Parse"
	case ErrIndexLoad:
		return "IndexLoad"
	case ErrConfig:
		return "Config"
	case ErrStore:
		return "Store"
	case ErrFileOp:
		return "FileOp"
	default:
		return "Unknown"
	}
}

// PackDepsError represents an error while loading or querying an index
type PackDepsError struct {
	Type    ErrorType
	Package string
	Err     error
}

// Error implements the error interface
func (e *PackDepsError) Error() string {
	if e.Package != "" {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Package, e.Err)
	}
	return fmt.Sprintf("[%s] %v", e.Type, e.Err)
}

// Unwrap returns the wrapped error
func (e *PackDepsError) Unwrap() error {
	return e.Err
}
