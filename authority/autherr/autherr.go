// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package autherr defines the closed set of failures the decryption authority
// can report. Every error produced by the authority packages carries a Kind so
// callers can switch over it exhaustively instead of matching on messages.
package autherr

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

// Kind classifies an authority failure.
type Kind int

const (
	// Unknown is reported for errors that did not originate in the authority packages.
	Unknown Kind = iota
	// BadInput is a malformed or missing request field.
	BadInput
	// NoInverse means a required modular inverse does not exist.
	NoInverse
	// InvalidParameters is a threshold, share count or modulus misconfiguration.
	InvalidParameters
	// Decryption means the ciphertext could not be decrypted, e.g. c1 ≡ 0 (mod p).
	Decryption
)

func (k Kind) String() string {
	switch k {
	case BadInput:
		return "BadInput"
	case NoInverse:
		return "NoInverse"
	case InvalidParameters:
		return "InvalidParameters"
	case Decryption:
		return "Decryption"
	case Unknown:
		return "Unknown"
	default:
		return fmt.Sprintf("unknown error kind: %d", int(k))
	}
}

// ParseKind is the inverse of Kind.String. It returns Unknown for
// unrecognised names.
func ParseKind(name string) Kind {
	for _, k := range []Kind{BadInput, NoInverse, InvalidParameters, Decryption} {
		if k.String() == name {
			return k
		}
	}
	return Unknown
}

// Category is the coarse classification reported to transport callers.
type Category string

const (
	// CategoryBadInput is reported for caller errors.
	CategoryBadInput Category = "Bad Input"
	// CategoryProcessingFailure is reported for everything else.
	CategoryProcessingFailure Category = "Processing Failure"
)

// Category maps the kind onto the category exposed to callers.
func (k Kind) Category() Category {
	if k == BadInput {
		return CategoryBadInput
	}
	return CategoryProcessingFailure
}

// Error is an authority failure with its kind, an optional cause and the
// frame it was created at.
type Error struct {
	Kind  Kind
	msg   string
	err   error
	frame xerrors.Frame
}

// New returns an error of the given kind.
func New(kind Kind, format string, args ...interface{}) error {
	return &Error{
		Kind:  kind,
		msg:   fmt.Sprintf(format, args...),
		frame: xerrors.Caller(1),
	}
}

// Wrap returns an error of the given kind with err as its cause. It returns
// nil if err is nil.
func Wrap(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:  kind,
		msg:   fmt.Sprintf(format, args...),
		err:   err,
		frame: xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	switch {
	case e.err == nil:
		return e.msg
	case e.msg == "":
		return e.err.Error()
	default:
		return e.msg + ": " + e.err.Error()
	}
}

// Unwrap returns the cause of the error.
func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, &Error{Kind: NoInverse}) matches anywhere in the chain.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.msg == "" && t.err == nil
}

// Format prints the error to the formatter.
func (e *Error) Format(f fmt.State, c rune) {
	xerrors.FormatError(e, f, c)
}

// FormatError prints the error and, with %+v, the frame it was created at.
func (e *Error) FormatError(p xerrors.Printer) error {
	p.Printf("%s: %s", e.Kind, e.msg)
	if p.Detail() {
		e.frame.Format(p)
	}
	return e.err
}

// KindOf returns the kind of the outermost *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Has reports whether any error in err's chain is of the given kind.
func Has(err error, kind Kind) bool {
	return errors.Is(err, &Error{Kind: kind})
}
