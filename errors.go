// errors.go: Error kinds and codes reported by the binding engine
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package rcfg

import (
	stderrors "errors"

	"github.com/agilira/go-errors"
)

// Error codes for engine notifications and API boundaries.
const (
	ErrCodeDecode          = "RCFG_DECODE_ERROR"
	ErrCodeRequiredMissing = "RCFG_REQUIRED_MISSING"
	ErrCodeValidation      = "RCFG_VALIDATION_FAILED"
	ErrCodeStructural      = "RCFG_STRUCTURAL_ERROR"
	ErrCodeDuplicate       = "RCFG_DUPLICATE_ELEMENT"

	ErrCodeTypeMismatch      = "RCFG_TYPE_MISMATCH"
	ErrCodeOutOfRange        = "RCFG_OUT_OF_RANGE"
	ErrCodeInvalidDocument   = "RCFG_INVALID_DOCUMENT"
	ErrCodeUnsupportedFormat = "RCFG_UNSUPPORTED_FORMAT"
	ErrCodeInvalidKey        = "RCFG_INVALID_KEY"
	ErrCodeUnknownEnum       = "RCFG_UNKNOWN_ENUM"
)

// ErrorKind classifies an Error notification delivered to a Sink.
type ErrorKind int

const (
	// DecodeError means scalar extraction failed (type mismatch or malformed value).
	DecodeError ErrorKind = iota + 1
	// RequiredMissing means there was no input and no configured default.
	RequiredMissing
	// ValidationFailed means a validator rejected the candidate.
	ValidationFailed
	// StructuralError means a container expected an array or object.
	StructuralError
	// DuplicateElement means a set input repeated a value.
	DuplicateElement
)

// String returns the kind name.
func (k ErrorKind) String() string {
	switch k {
	case DecodeError:
		return "decode"
	case RequiredMissing:
		return "required"
	case ValidationFailed:
		return "validation"
	case StructuralError:
		return "structural"
	case DuplicateElement:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Code returns the go-errors code associated with the kind.
func (k ErrorKind) Code() errors.ErrorCode {
	switch k {
	case DecodeError:
		return ErrCodeDecode
	case RequiredMissing:
		return ErrCodeRequiredMissing
	case ValidationFailed:
		return ErrCodeValidation
	case StructuralError:
		return ErrCodeStructural
	case DuplicateElement:
		return ErrCodeDuplicate
	default:
		return "RCFG_UNKNOWN"
	}
}

// ParamError is the value passed to Sink.Error. Its Error method returns the
// bare message so sinks can render it verbatim next to the parameter path.
// Codecs and validators return it too; Code refines the kind's default code.
type ParamError struct {
	Kind    ErrorKind
	Code    errors.ErrorCode
	Message string
	Err     error
}

func (e *ParamError) Error() string { return e.Message }

func (e *ParamError) Unwrap() error { return e.Err }

// ErrorCode implements errors.ErrorCoder.
func (e *ParamError) ErrorCode() errors.ErrorCode {
	if e.Code != "" {
		return e.Code
	}
	return e.Kind.Code()
}

func paramError(kind ErrorKind, msg string, cause error) *ParamError {
	return &ParamError{Kind: kind, Message: msg, Err: cause}
}

func decodeFailure(code errors.ErrorCode, msg string) *ParamError {
	return &ParamError{Kind: DecodeError, Code: code, Message: msg}
}

// Invalid returns a validation failure carrying msg. Custom validators
// should use it so their message is reported without decoration.
func Invalid(msg string) error {
	return &ParamError{Kind: ValidationFailed, Message: msg}
}

// KindOf reports the ErrorKind carried by err, if any.
func KindOf(err error) (ErrorKind, bool) {
	var pe *ParamError
	if stderrors.As(err, &pe) {
		return pe.Kind, true
	}
	return 0, false
}

// messageOf extracts the human readable part of err.
func messageOf(err error) string {
	var pe *ParamError
	if stderrors.As(err, &pe) {
		return pe.Message
	}
	return err.Error()
}
