package soap

import (
	"strings"
	"time"
)

const (
	Version11 = "1.1"
	Version12 = "1.2"

	StyleDocument = "document"
	StyleRPC      = "rpc"

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "soapgate/1.0"
)

// Options mirrors the knobs of a classic SOAP client. Zero values pick the
// defaults; Location and URI override what the WSDL says.
type Options struct {
	Location       string `yaml:"location" json:"location,omitempty"`
	URI            string `yaml:"uri" json:"uri,omitempty"`
	SOAPVersion    string `yaml:"soapVersion" json:"soapVersion,omitempty"`
	Style          string `yaml:"style" json:"style,omitempty"`
	SOAPActionBase string `yaml:"soapActionBase" json:"soapActionBase,omitempty"`
	Login          string `yaml:"login" json:"login,omitempty"`
	Password       string `yaml:"password" json:"-"`
	UserAgent      string `yaml:"userAgent" json:"userAgent,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds" json:"timeoutSeconds,omitempty"`
}

func (o Options) version() string {
	if strings.TrimSpace(o.SOAPVersion) == Version12 {
		return Version12
	}
	return Version11
}

func (o Options) style() string {
	if strings.EqualFold(strings.TrimSpace(o.Style), StyleRPC) {
		return StyleRPC
	}
	return StyleDocument
}

func (o Options) timeout() time.Duration {
	if o.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o Options) userAgent() string {
	if strings.TrimSpace(o.UserAgent) == "" {
		return defaultUserAgent
	}
	return o.UserAgent
}
