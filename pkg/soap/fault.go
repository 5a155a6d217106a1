package soap

import (
	"fmt"
	"strings"
)

const (
	FaultCodeHTTP   = "HTTP"
	FaultCodeWSDL   = "WSDL"
	FaultCodeClient = "Client"
)

// Fault is returned whenever a call cannot complete: a SOAP Fault in the
// reply, a transport error, or a reply that is not a SOAP envelope. It keeps
// a copy of the exchange for diagnostics.
type Fault struct {
	Code    string
	Message string
	Detail  any

	LastRequestHeaders string
	LastRequest        string
	LastResponse       string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("soap fault [%s]: %s", f.Code, f.Message)
}

// Dump renders the fault and the exchange that produced it.
func (f *Fault) Dump() string {
	var b strings.Builder
	b.WriteString("[Code] ")
	b.WriteString(f.Code)
	b.WriteString("\n[Message] ")
	b.WriteString(f.Message)
	b.WriteString("\n[LastRequestHeaders] ")
	b.WriteString(f.LastRequestHeaders)
	b.WriteString("\n[LastRequest] ")
	b.WriteString(f.LastRequest)
	b.WriteString("\n[LastResponse] ")
	b.WriteString(f.LastResponse)
	return b.String()
}
