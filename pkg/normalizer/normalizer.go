// Package normalizer turns the reply of an arbitrary SOAP method into a
// domain.ResultRecord, guided by a StructDescriptor and a SuccessPredicate.
package normalizer

import (
	"fmt"
	"strings"

	"github.com/osvaldoandrade/soapgate/pkg/domain"
)

// DebugPrefix starts the failure message in debug mode when the reply carries
// no message of its own.
const DebugPrefix = "SOAP ERROR: "

// Normalizer is stateless; the zero value runs in silent mode.
type Normalizer struct {
	Mode domain.Mode
}

func New(mode domain.Mode) Normalizer {
	return Normalizer{Mode: mode}
}

// Normalize never fails: structural mismatches come back as failed records
// whose payload is the matching ErrorLevel. lastResponse is only read when a
// failed validation has a blank message and the mode is debug.
func (n Normalizer) Normalize(reply map[string]any, d domain.StructDescriptor, pred domain.SuccessPredicate, lastResponse string) domain.ResultRecord {
	raw, ok := reply[d.Container]
	if !ok {
		return domain.Failure(domain.LevelStructNotFound)
	}
	container, ok := raw.(map[string]any)
	if !ok {
		return domain.Failure(domain.LevelInternalStructNotFound)
	}
	status, ok := container[d.Status]
	if !ok {
		return domain.Failure(domain.LevelInternalStructNotFound)
	}

	message := text(container[d.Message])
	if d.Auxiliary != "" {
		if aux, ok := container[d.Auxiliary]; ok {
			message += " " + text(aux)
		}
	}

	if pred == nil {
		pred = domain.DefaultPredicate()
	}
	if pred.Evaluate(status, container) {
		return domain.ResultRecord{
			Succeeded: true,
			Message:   message,
			Payload:   successPayload(container, d, status),
		}
	}

	if strings.TrimSpace(message) == "" {
		if n.Mode == domain.ModeDebug {
			message = DebugPrefix + lastResponse
		} else {
			message = domain.LevelValidationFailed.Message()
		}
	}
	return domain.ResultRecord{
		Succeeded: false,
		Message:   message,
		Payload:   domain.LevelValidationFailed,
	}
}

func successPayload(container map[string]any, d domain.StructDescriptor, status any) map[string]any {
	if len(d.Extra) == 0 {
		return map[string]any{d.Status: status}
	}
	out := make(map[string]any, len(d.Extra))
	for _, name := range d.Extra {
		// missing extras degrade to nil
		out[name] = container[name]
	}
	return out
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}
