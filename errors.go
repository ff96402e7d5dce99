package main

import "fmt"

// ConnectionError means the source or target database could not be reached.
// It aborts the whole run.
type ConnectionError struct {
	Side string // "source" or "target"
	Err  error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect %s: %v", e.Side, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IntrospectionError is a failed catalog query for one table.
type IntrospectionError struct {
	Table string
	Err   error
}

func (e *IntrospectionError) Error() string {
	return fmt.Sprintf("introspect %s: %v", e.Table, e.Err)
}

func (e *IntrospectionError) Unwrap() error { return e.Err }

// ExtractionError is a failed row read from a source table.
type ExtractionError struct {
	Table string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Table, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ConversionError is a value that could not be converted for the target.
type ConversionError struct {
	Table  string
	Column string
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s.%s: %v", e.Table, e.Column, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// LoadError is a failed write into a target table.
type LoadError struct {
	Table string
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Table, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }
