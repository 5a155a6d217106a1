// Package hmac validates HS256/HS384/HS512 JWTs signed with a shared secret.
package hmac

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/osvaldoandrade/soapgate/pkg/auth"
)

type validatorConfig struct {
	Secret           string `json:"secret"`
	Issuer           string `json:"issuer,omitempty"`
	Audience         string `json:"audience,omitempty"`
	ClockSkewSeconds int    `json:"clockSkewSeconds,omitempty"`
}

type Validator struct {
	secret []byte
	opts   []jwt.ParserOption
}

func NewValidatorFromJSON(raw json.RawMessage) (auth.Validator, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errors.New("hmac auth: missing config")
	}
	var cfg validatorConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("hmac auth: invalid config: %w", err)
	}
	return NewValidator(cfg.Secret, cfg.Issuer, cfg.Audience, time.Duration(cfg.ClockSkewSeconds)*time.Second)
}

// NewValidator requires a secret; issuer and audience are checked only when
// set.
func NewValidator(secret, issuer, audience string, skew time.Duration) (*Validator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("hmac auth: secret is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithLeeway(skew),
		jwt.WithIssuedAt(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	return &Validator{secret: []byte(secret), opts: opts}, nil
}

func (v *Validator) Validate(tokenString string) (*auth.Claims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, v.opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	out := &auth.Claims{Raw: claims}
	out.Subject, _ = claims.GetSubject()
	out.Issuer, _ = claims.GetIssuer()
	out.Audience, _ = claims.GetAudience()
	if exp, _ := claims.GetExpirationTime(); exp != nil {
		out.ExpiresAt = exp.Time
	}
	if iat, _ := claims.GetIssuedAt(); iat != nil {
		out.IssuedAt = iat.Time
	}
	out.Email, _ = claims["email"].(string)
	if scope, ok := claims["scope"].(string); ok {
		out.Scopes = strings.Fields(scope)
	}
	return out, nil
}

func init() {
	auth.RegisterProvider("hmac", NewValidatorFromJSON)
}
