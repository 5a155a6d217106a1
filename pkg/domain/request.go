package domain

import (
	"encoding"
	"errors"
	"strings"
)

// StructDescriptor tells the normalizer where the status, message and extra
// fields live in the reply of one remote method.
type StructDescriptor struct {
	Container string   `json:"container" yaml:"container"`
	Status    string   `json:"status" yaml:"status"`
	Message   string   `json:"message" yaml:"message"`
	Auxiliary string   `json:"auxiliary,omitempty" yaml:"auxiliary,omitempty"`
	Extra     []string `json:"extra,omitempty" yaml:"extra,omitempty"`
}

func (d StructDescriptor) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Container) == "" {
		missing = append(missing, "container")
	}
	if strings.TrimSpace(d.Status) == "" {
		missing = append(missing, "status")
	}
	if strings.TrimSpace(d.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return errors.New("struct descriptor missing " + strings.Join(missing, ", "))
	}
	return nil
}

// RequestParams describes one remote invocation.
type RequestParams struct {
	Method    string
	Args      []any
	Struct    StructDescriptor
	Predicate SuccessPredicate
}

func NewRequest(method string) *RequestParams {
	return &RequestParams{Method: method, Predicate: DefaultPredicate()}
}

func (p *RequestParams) WithArgs(args ...any) *RequestParams {
	p.Args = args
	return p
}

func (p *RequestParams) WithStruct(d StructDescriptor) *RequestParams {
	p.Struct = d
	return p
}

// WithPredicate sets the success predicate; nil restores the default.
func (p *RequestParams) WithPredicate(pred SuccessPredicate) *RequestParams {
	if pred == nil {
		pred = DefaultPredicate()
	}
	p.Predicate = pred
	return p
}

// Mode controls how much transport detail ends up in failure messages.
type Mode string

const (
	ModeSilent Mode = "silent"
	ModeDebug  Mode = "debug"
)

var (
	_ encoding.TextMarshaler   = Mode("")
	_ encoding.TextUnmarshaler = (*Mode)(nil)
)

func (m Mode) MarshalText() ([]byte, error) { return []byte(string(m)), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMode accepts "debug" and "silent"; empty means silent.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "silent":
		return ModeSilent, nil
	case "debug":
		return ModeDebug, nil
	}
	return "", errors.New("invalid mode " + s + " (use debug or silent)")
}
