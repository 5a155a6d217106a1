package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

var (
	ErrNotConnected           = errors.New("not connected")
	ErrStructNotFound         = errors.New("response structure not found")
	ErrInternalStructNotFound = errors.New("response internal structure not found")
	ErrValidationFailed       = errors.New("response validation failed")
	ErrCallFailed             = errors.New("soap call failed")
	ErrBaseURLUnreachable     = errors.New("base url unreachable")
	ErrConnection             = errors.New("soap connection failed")
)

func sentinelFor(l ErrorLevel) error {
	switch l {
	case LevelNotConnected:
		return ErrNotConnected
	case LevelStructNotFound:
		return ErrStructNotFound
	case LevelInternalStructNotFound:
		return ErrInternalStructNotFound
	case LevelValidationFailed:
		return ErrValidationFailed
	case LevelCallFailed:
		return ErrCallFailed
	case LevelBaseURLUnreachable:
		return ErrBaseURLUnreachable
	}
	return nil
}

// HandlerError is the escalated form of an error level. File and Line point at
// the site that raised it.
type HandlerError struct {
	Level   ErrorLevel
	Message string
	File    string
	Line    int
	Cause   error

	// connection marks errors raised while establishing the client.
	connection bool
}

// NewHandlerError builds a HandlerError for level using the level message.
// The provenance is taken from the caller of NewHandlerError.
func NewHandlerError(level ErrorLevel, cause error) *HandlerError {
	e := &HandlerError{Level: level, Message: level.Message(), Cause: cause}
	e.File, e.Line = caller(2)
	return e
}

// NewCallError wraps a transport failure with its diagnostic dump.
func NewCallError(dump string, cause error) *HandlerError {
	e := &HandlerError{Level: LevelCallFailed, Message: dump, Cause: cause}
	e.File, e.Line = caller(2)
	return e
}

// NewConnectionError reports a failure to build the SOAP client.
func NewConnectionError(dump string, cause error) *HandlerError {
	e := &HandlerError{Level: LevelCallFailed, Message: dump, Cause: cause, connection: true}
	e.File, e.Line = caller(2)
	return e
}

// NewUnreachableError reports a failed reachability probe of baseURL.
func NewUnreachableError(baseURL, diagnostic string) *HandlerError {
	e := &HandlerError{
		Level:   LevelBaseURLUnreachable,
		Message: MessageFor(LevelBaseURLUnreachable, baseURL, diagnostic),
	}
	e.File, e.Line = caller(2)
	return e
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %s (%s:%d)", e.Level, e.Message, filepath.Base(e.File), e.Line)
}

func (e *HandlerError) Unwrap() error { return e.Cause }

func (e *HandlerError) Is(target error) bool {
	if e.connection && target == ErrConnection {
		return true
	}
	s := sentinelFor(e.Level)
	return s != nil && s == target
}

func caller(skip int) (string, int) {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", 0
	}
	return file, line
}
