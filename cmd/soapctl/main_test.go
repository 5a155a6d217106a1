package main

import (
	"strings"
	"testing"

	"github.com/osvaldoandrade/soapgate/pkg/config"
	"github.com/osvaldoandrade/soapgate/pkg/domain"
)

func TestParseArgs(t *testing.T) {
	got, err := parseArgs(`[{"id":7},"x"]`)
	if err != nil || len(got) != 2 {
		t.Fatalf("parseArgs(list) = %v, %v", got, err)
	}
	got, err = parseArgs(`{"id":7}`)
	if err != nil || len(got) != 1 {
		t.Fatalf("parseArgs(object) = %v, %v", got, err)
	}
	if got, err := parseArgs("  "); err != nil || got != nil {
		t.Fatalf("parseArgs(empty) = %v, %v", got, err)
	}
	if _, err := parseArgs("{nope"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

const batchYAML = `
defaults:
  struct:
    container: GetUserResult
    status: status
    message: msg
  expect: [1, OK]
calls:
  - method: GetUser
    args: [{id: 7}]
  - method: GetOrder
    args: [42]
    struct:
      container: GetOrderResult
      status: code
      message: text
      extra: [total]
`

func TestParseBatch(t *testing.T) {
	reqs, err := parseBatch([]byte(batchYAML))
	if err != nil {
		t.Fatalf("parseBatch: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("len = %d", len(reqs))
	}
	if reqs[0].Struct.Container != "GetUserResult" || len(reqs[0].Expect) != 2 {
		t.Errorf("defaults not applied: %+v", reqs[0])
	}
	if reqs[1].Struct.Container != "GetOrderResult" || reqs[1].Struct.Extra[0] != "total" {
		t.Errorf("explicit struct lost: %+v", reqs[1])
	}
	if !reqs[0].Params().Predicate.Evaluate("OK", nil) {
		t.Error("expect values should drive the predicate")
	}
}

func TestParseBatchErrors(t *testing.T) {
	if _, err := parseBatch([]byte("calls: []")); err == nil {
		t.Error("empty batch should fail")
	}
	_, err := parseBatch([]byte("calls:\n  - method: GetUser\n"))
	if err == nil || !strings.Contains(err.Error(), "call 1 (GetUser)") {
		t.Errorf("err = %v", err)
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := &config.Config{BaseURL: "http://from-file", Mode: domain.ModeSilent}
	g := &globals{baseURL: "http://flag", endpoint: "svc?wsdl", debug: true, throw: true, login: "bob"}
	if err := applyFlags(cfg, g); err != nil {
		t.Fatalf("applyFlags: %v", err)
	}
	if cfg.BaseURL != "http://flag" || cfg.Endpoint != "svc?wsdl" || cfg.Mode != domain.ModeDebug || !cfg.ThrowErrors || cfg.SOAP.Login != "bob" {
		t.Errorf("cfg = %+v", cfg)
	}
	if got := handlerSettings(cfg).WSDLURL(); got != "http://flag/svc?wsdl" {
		t.Errorf("WSDLURL = %q", got)
	}
}
