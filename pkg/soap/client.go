// Package soap is a small dynamic SOAP client: it calls methods by name with
// positional arguments and hands back the reply as a generic tree of maps,
// slices and strings.
package soap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/osvaldoandrade/soapgate/internal/tracing"
)

// Client is safe for concurrent use. The last exchange is shared, so the
// Last* accessors describe whichever call finished most recently.
type Client struct {
	httpClient *http.Client
	opts       Options
	location   string
	namespace  string
	version    string
	actions    map[string]string

	mu                 sync.Mutex
	lastRequestHeaders string
	lastRequest        string
	lastResponse       string
}

// Dial loads the WSDL at wsdlURL and prepares a client for the service it
// describes. With an empty wsdlURL the client runs in non-WSDL mode and
// opts.Location and opts.URI are required.
func Dial(ctx context.Context, wsdlURL string, opts Options) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: opts.timeout()},
		opts:       opts,
		actions:    map[string]string{},
	}

	if strings.TrimSpace(wsdlURL) != "" {
		desc, err := c.loadWSDL(ctx, wsdlURL)
		if err != nil {
			return nil, err
		}
		c.namespace = desc.namespace
		c.location = desc.location
		c.version = desc.version
		c.actions = desc.actions
	}

	if v := strings.TrimSpace(opts.Location); v != "" {
		c.location = v
	}
	if v := strings.TrimSpace(opts.URI); v != "" {
		c.namespace = v
	}
	if strings.TrimSpace(opts.SOAPVersion) != "" || c.version == "" {
		c.version = opts.version()
	}
	if c.location == "" {
		return nil, &Fault{Code: FaultCodeWSDL, Message: "no service location: set the location option or provide a WSDL with a soap:address"}
	}
	if wsdlURL == "" && c.namespace == "" {
		return nil, &Fault{Code: FaultCodeClient, Message: "'uri' option is required in nonWSDL mode"}
	}
	return c, nil
}

func (c *Client) loadWSDL(ctx context.Context, wsdlURL string) (*serviceDescription, error) {
	couldNotLoad := func(reason string) error {
		return &Fault{Code: FaultCodeWSDL, Message: fmt.Sprintf("SOAP-ERROR: Parsing WSDL: Couldn't load from '%s': %s", wsdlURL, reason)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wsdlURL, nil)
	if err != nil {
		return nil, couldNotLoad(err.Error())
	}
	c.authorize(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, couldNotLoad(err.Error())
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, couldNotLoad(err.Error())
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, couldNotLoad(resp.Status)
	}
	desc, err := parseWSDL(raw)
	if err != nil {
		return nil, couldNotLoad(err.Error())
	}
	return desc, nil
}

// Location is the URL calls are posted to.
func (c *Client) Location() string { return c.location }

// Namespace is the target namespace used for method elements.
func (c *Client) Namespace() string { return c.namespace }

// Version is the SOAP version spoken by the client.
func (c *Client) Version() string { return c.version }

// Invoke calls method with args. Every failure is a *Fault.
func (c *Client) Invoke(ctx context.Context, method string, args []any) (map[string]any, error) {
	payload, err := encodeEnvelope(c.version, c.opts.style(), c.namespace, method, args)
	if err != nil {
		return nil, c.fault(FaultCodeClient, err.Error(), nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.location, bytes.NewReader(payload))
	if err != nil {
		return nil, c.fault(FaultCodeClient, err.Error(), nil)
	}
	action := c.action(method)
	if c.version == Version12 {
		req.Header.Set("Content-Type", fmt.Sprintf(`application/soap+xml; charset=utf-8; action="%s"`, action))
	} else {
		req.Header.Set("Content-Type", "text/xml; charset=utf-8")
		req.Header.Set("SOAPAction", `"`+action+`"`)
	}
	req.Header.Set("User-Agent", c.opts.userAgent())
	tracing.InjectHeaders(ctx, req.Header)
	c.authorize(req)
	c.recordRequest(req, payload)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordResponse("")
		return nil, c.fault(FaultCodeHTTP, err.Error(), nil)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	c.recordResponse(string(raw))
	if err != nil {
		return nil, c.fault(FaultCodeHTTP, err.Error(), nil)
	}

	reply, fb, err := decodeResponse(raw, method)
	if err != nil {
		if resp.StatusCode >= 300 {
			return nil, c.fault(FaultCodeHTTP, resp.Status, nil)
		}
		return nil, c.fault(FaultCodeClient, err.Error(), nil)
	}
	if fb != nil {
		return nil, c.fault(fb.code, fb.message, fb.detail)
	}
	return reply, nil
}

func (c *Client) action(method string) string {
	if a, ok := c.actions[method]; ok {
		return a
	}
	base := c.opts.SOAPActionBase
	if base == "" {
		base = c.namespace
	}
	if base == "" {
		return method
	}
	if strings.HasSuffix(base, "/") || strings.HasSuffix(base, "#") {
		return base + method
	}
	if strings.HasPrefix(base, "urn:") {
		return base + "#" + method
	}
	return base + "/" + method
}

func (c *Client) authorize(req *http.Request) {
	if c.opts.Login != "" {
		req.SetBasicAuth(c.opts.Login, c.opts.Password)
	}
}

func (c *Client) recordRequest(req *http.Request, payload []byte) {
	var h bytes.Buffer
	fmt.Fprintf(&h, "%s %s HTTP/1.1\r\nHost: %s\r\n", req.Method, req.URL.RequestURI(), req.URL.Host)
	redacted := req.Header.Clone()
	if redacted.Get("Authorization") != "" {
		redacted.Set("Authorization", "Basic ****")
	}
	_ = redacted.Write(&h)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastRequestHeaders = h.String()
	c.lastRequest = string(payload)
	c.lastResponse = ""
}

func (c *Client) recordResponse(raw string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResponse = raw
}

func (c *Client) fault(code, msg string, detail any) *Fault {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Fault{
		Code:               code,
		Message:            msg,
		Detail:             detail,
		LastRequestHeaders: c.lastRequestHeaders,
		LastRequest:        c.lastRequest,
		LastResponse:       c.lastResponse,
	}
}

func (c *Client) LastRequestHeaders() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRequestHeaders
}

func (c *Client) LastRequest() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastRequest
}

func (c *Client) LastResponse() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastResponse
}

// AsFault extracts a *Fault from err.
func AsFault(err error) (*Fault, bool) {
	var f *Fault
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
