package soap

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/clbanning/mxj/v2"
)

var errNoEnvelope = errors.New("looks like we got no XML document")

// faultBody is the normalized content of a SOAP 1.1 or 1.2 Fault element.
type faultBody struct {
	code    string
	message string
	detail  any
}

// decodeResponse parses a SOAP envelope and returns the children of the
// response element, or the fault it carries.
func decodeResponse(raw []byte, method string) (map[string]any, *faultBody, error) {
	m, err := mxj.NewMapXml(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", errNoEnvelope, err)
	}
	tree, _ := Tree(map[string]any(m)).(map[string]any)
	env, ok := tree["Envelope"].(map[string]any)
	if !ok {
		return nil, nil, errNoEnvelope
	}
	body, ok := env["Body"].(map[string]any)
	if !ok {
		if s, isText := env["Body"].(string); isText && s == "" {
			return map[string]any{}, nil, nil
		}
		return nil, nil, errors.New("envelope has no Body")
	}
	if f, ok := body["Fault"]; ok {
		return nil, parseFault(f), nil
	}
	return pickResponse(body, method), nil, nil
}

func pickResponse(body map[string]any, method string) map[string]any {
	var chosen any
	if v, ok := body[method+"Response"]; ok {
		chosen = v
	} else if len(body) == 1 {
		for _, v := range body {
			chosen = v
		}
	} else {
		// several parts and none named after the method: keep the first one in name order
		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		if len(keys) > 0 {
			chosen = body[keys[0]]
		}
	}
	if m, ok := chosen.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func parseFault(v any) *faultBody {
	f, ok := v.(map[string]any)
	if !ok {
		return &faultBody{code: "Server", message: fmt.Sprint(v)}
	}
	out := &faultBody{}
	// SOAP 1.1
	if c, ok := f["faultcode"]; ok {
		out.code = fmt.Sprint(c)
		out.message = textOf(f["faultstring"])
		out.detail = f["detail"]
		return out
	}
	// SOAP 1.2
	if code, ok := f["Code"].(map[string]any); ok {
		out.code = textOf(code["Value"])
	} else {
		out.code = textOf(f["Code"])
	}
	if reason, ok := f["Reason"].(map[string]any); ok {
		out.message = textOf(reason["Text"])
	} else {
		out.message = textOf(f["Reason"])
	}
	out.detail = f["Detail"]
	return out
}

func textOf(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		if len(t) > 0 {
			return textOf(t[0])
		}
		return ""
	}
	return fmt.Sprint(v)
}

// Tree rewrites a decoded XML map into the shape used for normalization:
// namespace prefixes are dropped from element names, attributes are dropped,
// xsi:nil="true" becomes nil and text-only elements collapse to their text.
func Tree(v any) any {
	switch t := v.(type) {
	case mxj.Map:
		return Tree(map[string]any(t))
	case map[string]any:
		return treeMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Tree(item)
		}
		return out
	}
	return v
}

func treeMap(m map[string]any) any {
	out := make(map[string]any, len(m))
	var text any
	hasText, isNil := false, false
	for k, val := range m {
		switch {
		case strings.HasPrefix(k, "-"):
			if localName(k[1:]) == "nil" && strings.EqualFold(strings.TrimSpace(fmt.Sprint(val)), "true") {
				isNil = true
			}
		case k == "#text":
			text, hasText = val, true
		case strings.HasPrefix(k, "#"):
		default:
			out[localName(k)] = Tree(val)
		}
	}
	if isNil {
		return nil
	}
	if len(out) == 0 {
		if hasText {
			return text
		}
		return ""
	}
	if hasText {
		out["#text"] = text
	}
	return out
}

func localName(k string) string {
	if i := strings.LastIndexByte(k, ':'); i >= 0 {
		return k[i+1:]
	}
	return k
}
