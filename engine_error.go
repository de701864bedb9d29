// engine_error.go - Fatal engine error type

/*
Polygon Engine
(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/PolygonEngine
License: GPLv3 or later
*/

package main

import (
	"errors"
	"fmt"
)

// ErrorCode classifies fatal engine errors.
type ErrorCode int

const (
	ErrInvalidPart ErrorCode = iota + 1
	ErrStackOverflow
	ErrStackUnderflow
	ErrUnknownOpcode
	ErrMissingDirectory
	ErrBankRead
	ErrOutOfRange
)

var errorCodeNames = map[ErrorCode]string{
	ErrInvalidPart:      "invalid part",
	ErrStackOverflow:    "stack overflow",
	ErrStackUnderflow:   "stack underflow",
	ErrUnknownOpcode:    "unknown opcode",
	ErrMissingDirectory: "missing directory",
	ErrBankRead:         "bank read",
	ErrOutOfRange:       "out of range",
}

func (c ErrorCode) String() string {
	if s, ok := errorCodeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("code %d", int(c))
}

// EngineError provides context for errors that stop the engine
type EngineError struct {
	Op     string    // What operation was being attempted
	Code   ErrorCode // Error class
	Detail string    // Additional error context
	Err    error     // Underlying error if any
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("engine %s failed (%s): %s: %v", e.Op, e.Code, e.Detail, e.Err)
	}
	return fmt.Sprintf("engine %s failed (%s): %s", e.Op, e.Code, e.Detail)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

func engineErrorf(op string, code ErrorCode, format string, args ...any) *EngineError {
	return &EngineError{Op: op, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// errorCode returns the code of the first EngineError in err's chain.
func errorCode(err error) ErrorCode {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 0
}
