package auth

import (
	"strings"
	"time"
)

// Claims is what a validator learned about the gateway caller.
type Claims struct {
	Subject   string
	Email     string
	Issuer    string
	Audience  []string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Scopes    []string
	Raw       map[string]interface{}
}

func (c *Claims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Role is the upper-cased "role" claim, or "" when absent.
func (c *Claims) Role() string {
	if c == nil {
		return ""
	}
	v, _ := c.Raw["role"].(string)
	return strings.ToUpper(strings.TrimSpace(v))
}

// Validator validates bearer tokens presented to the gateway.
type Validator interface {
	Validate(token string) (*Claims, error)
}
