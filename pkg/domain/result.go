package domain

import (
	"encoding/json"
	"time"
)

// ResultRecord is the uniform outcome of a SOAP call.
//
// Payload is a map[string]any on success and an ErrorLevel on failure.
type ResultRecord struct {
	Succeeded bool   `json:"succeeded"`
	Message   string `json:"message"`
	Payload   any    `json:"payload"`
}

// Failure returns the record used for an error level before any reply exists.
func Failure(l ErrorLevel) ResultRecord {
	return ResultRecord{Succeeded: false, Message: l.Message(), Payload: l}
}

// Fields returns the success payload.
func (r ResultRecord) Fields() (map[string]any, bool) {
	if !r.Succeeded {
		return nil, false
	}
	m, ok := r.Payload.(map[string]any)
	return m, ok
}

// ErrorLevel returns the failure payload.
func (r ResultRecord) ErrorLevel() (ErrorLevel, bool) {
	if r.Succeeded {
		return LevelNone, false
	}
	l, ok := r.Payload.(ErrorLevel)
	return l, ok
}

// UnmarshalJSON restores an ErrorLevel payload on failed records.
func (r *ResultRecord) UnmarshalJSON(b []byte) error {
	var raw struct {
		Succeeded bool            `json:"succeeded"`
		Message   string          `json:"message"`
		Payload   json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	r.Succeeded = raw.Succeeded
	r.Message = raw.Message
	r.Payload = nil
	if len(raw.Payload) == 0 || string(raw.Payload) == "null" {
		return nil
	}
	if !raw.Succeeded {
		var code int
		if err := json.Unmarshal(raw.Payload, &code); err == nil {
			r.Payload = ErrorLevel(code)
			return nil
		}
	}
	var fields map[string]any
	if err := json.Unmarshal(raw.Payload, &fields); err != nil {
		return err
	}
	r.Payload = fields
	return nil
}

// CallRecord is the audit entry of one gateway call.
type CallRecord struct {
	ID          string           `json:"id"`
	Method      string           `json:"method"`
	Args        []any            `json:"args,omitempty"`
	Struct      StructDescriptor `json:"struct"`
	Result      ResultRecord     `json:"result"`
	Error       string           `json:"error,omitempty"`
	RequestID   string           `json:"requestId,omitempty"`
	TraceParent string           `json:"traceParent,omitempty"`
	StartedAt   time.Time        `json:"startedAt"`
	CompletedAt time.Time        `json:"completedAt"`
	DurationMs  int64            `json:"durationMs"`
}
