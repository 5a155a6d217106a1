package domain

import (
	"fmt"
	"sync"
)

// ErrorLevel classifies why a call did not produce a usable result. On failure
// it is stored as the ResultRecord payload.
type ErrorLevel int

const (
	LevelNone                   ErrorLevel = -1
	LevelNotConnected           ErrorLevel = 0
	LevelStructNotFound         ErrorLevel = 1
	LevelInternalStructNotFound ErrorLevel = 2
	LevelValidationFailed       ErrorLevel = 3
	LevelCallFailed             ErrorLevel = 4
	LevelBaseURLUnreachable     ErrorLevel = 5
)

var levelNames = map[ErrorLevel]string{
	LevelNone:                   "NONE",
	LevelNotConnected:           "NOT_CONNECTED",
	LevelStructNotFound:         "STRUCT_NOT_FOUND",
	LevelInternalStructNotFound: "INTERNAL_STRUCT_NOT_FOUND",
	LevelValidationFailed:       "VALIDATION_FAILED",
	LevelCallFailed:             "CALL_FAILED",
	LevelBaseURLUnreachable:     "BASE_URL_UNREACHABLE",
}

var defaultMessages = map[ErrorLevel]string{
	LevelNone:                   "This message is probably in the wrong place",
	LevelNotConnected:           "Connection error: calling a method when disconnected",
	LevelStructNotFound:         "Response error: the expected response structure cannot be found",
	LevelInternalStructNotFound: "Response error: the expected response structure cannot be found inside the container",
	LevelValidationFailed:       "The expected response value is invalid",
	LevelCallFailed:             "Calling error: soap returned an error",
	LevelBaseURLUnreachable:     "The base url %s isn't responding - HTTP Status Code: %s",
}

var (
	messagesMu sync.RWMutex
	messages   = cloneMessages(defaultMessages)
)

func cloneMessages(src map[ErrorLevel]string) map[ErrorLevel]string {
	out := make(map[ErrorLevel]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func (l ErrorLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Known reports whether l is one of the declared levels.
func (l ErrorLevel) Known() bool {
	_, ok := levelNames[l]
	return ok
}

// Message returns the current message template for l. Unknown levels fall back
// to the NONE message.
func (l ErrorLevel) Message() string {
	messagesMu.RLock()
	defer messagesMu.RUnlock()
	if msg, ok := messages[l]; ok {
		return msg
	}
	return messages[LevelNone]
}

// MessageFor formats the message template of l with args.
func MessageFor(l ErrorLevel, args ...any) string {
	msg := l.Message()
	if len(args) == 0 {
		return msg
	}
	return fmt.Sprintf(msg, args...)
}

// ReplaceMessage overrides the message used for a level, e.g. to localize it.
func ReplaceMessage(l ErrorLevel, msg string) {
	messagesMu.Lock()
	defer messagesMu.Unlock()
	messages[l] = msg
}

// ResetMessages restores the built-in message table.
func ResetMessages() {
	messagesMu.Lock()
	defer messagesMu.Unlock()
	messages = cloneMessages(defaultMessages)
}
