// Package scmerr implements the engine's error taxonomy: five kinds
// covering every stage from reading source text to executing
// bytecode. Each kind is a distinct Go type satisfying error, built
// with github.com/pkg/errors so a caller running with a debug flag
// can recover a stack trace, and so propagation across package
// boundaries (compiler -> CLI, VM -> REPL) can use errors.Wrap /
// errors.As without losing the original kind.
package scmerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which stage of the pipeline raised an error, for
// programmatic consumers that want to branch on it rather than parse
// the message.
type Kind string

const (
	KindParse         Kind = "parse"
	KindCompile       Kind = "compile"
	KindRuntime       Kind = "runtime"
	KindAssertion     Kind = "assertion"
	KindUnimplemented Kind = "unimplemented"
)

// SchemeError is satisfied by every error this package constructs,
// letting callers recover the Kind with a single type assertion or
// errors.As.
type SchemeError interface {
	error
	Kind() Kind
}

// ParseError reports a malformed program: an unexpected token, an
// unterminated string or list, or similar lexical/syntactic failure.
type ParseError struct {
	Reason string
}

func NewParseError(format string, args ...interface{}) error {
	return errors.WithStack(&ParseError{Reason: fmt.Sprintf(format, args...)})
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error: %s", e.Reason) }
func (e *ParseError) Kind() Kind    { return KindParse }

// CompileError reports a program that parsed but cannot be compiled:
// an unbound variable, an ill-formed special form, a local-variable
// or jump-distance overflow, or a define appearing where it is not
// legal.
type CompileError struct {
	Reason string
}

func NewCompileError(format string, args ...interface{}) error {
	return errors.WithStack(&CompileError{Reason: fmt.Sprintf(format, args...)})
}

func (e *CompileError) Error() string { return fmt.Sprintf("compile error: %s", e.Reason) }
func (e *CompileError) Kind() Kind    { return KindCompile }

// RuntimeError reports a failure while executing bytecode: calling a
// non-callable value, a wrong argument count, or a type error inside
// a builtin. Loading a global that has been interned but not yet
// assigned is not an error: it reads as Void.
type RuntimeError struct {
	Reason string
}

func NewRuntimeError(format string, args ...interface{}) error {
	return errors.WithStack(&RuntimeError{Reason: fmt.Sprintf(format, args...)})
}

func (e *RuntimeError) Error() string { return fmt.Sprintf("runtime error: %s", e.Reason) }
func (e *RuntimeError) Kind() Kind    { return KindRuntime }

// AssertionError reports a failed assert or assert-eq call, carrying
// the value(s) involved so a REPL or test harness can print them.
type AssertionError struct {
	Reason string
}

func NewAssertionError(format string, args ...interface{}) error {
	return errors.WithStack(&AssertionError{Reason: fmt.Sprintf(format, args...)})
}

func (e *AssertionError) Error() string { return fmt.Sprintf("assertion failed: %s", e.Reason) }
func (e *AssertionError) Kind() Kind    { return KindAssertion }

// UnimplementedError reports a recognized but not-yet-implemented
// special form (let, let*, letrec, fluid-let, set!, define-syntax) or
// other named future-proofing gap, per the core's Non-goals.
type UnimplementedError struct {
	Feature string
}

func NewUnimplementedError(feature string) error {
	return errors.WithStack(&UnimplementedError{Feature: feature})
}

func (e *UnimplementedError) Error() string {
	return fmt.Sprintf("unimplemented: %s", e.Feature)
}
func (e *UnimplementedError) Kind() Kind { return KindUnimplemented }

// Wrap attaches additional context to err while preserving its
// Kind/stack trace for errors.As.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}
