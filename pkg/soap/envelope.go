package soap

import (
	"bytes"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"time"
)

const (
	nsEnvelope11 = "http://schemas.xmlsoap.org/soap/envelope/"
	nsEnvelope12 = "http://www.w3.org/2003/05/soap-envelope"
	nsXSI        = "http://www.w3.org/2001/XMLSchema-instance"
)

func envelopeNamespace(version string) string {
	if version == Version12 {
		return nsEnvelope12
	}
	return nsEnvelope11
}

// encodeEnvelope writes the request envelope. The method element declares
// the target namespace as default so argument elements inherit it.
func encodeEnvelope(version, style, namespace, method string, args []any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)

	envelope := xml.StartElement{
		Name: xml.Name{Local: "soap:Envelope"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns:soap"}, Value: envelopeNamespace(version)},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXSI},
		},
	}
	body := xml.StartElement{Name: xml.Name{Local: "soap:Body"}}
	call := xml.StartElement{Name: xml.Name{Local: method}}
	if namespace != "" {
		call.Attr = []xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: namespace}}
	}

	for _, tok := range []xml.Token{envelope, body, call} {
		if err := enc.EncodeToken(tok); err != nil {
			return nil, err
		}
	}
	for i, arg := range args {
		var err error
		if m, ok := asMap(arg); ok && style == StyleDocument {
			err = writeFields(enc, m)
		} else {
			err = writeValue(enc, "param"+strconv.Itoa(i), arg)
		}
		if err != nil {
			return nil, fmt.Errorf("encode arg %d: %w", i, err)
		}
	}
	for _, tok := range []xml.Token{call.End(), body.End(), envelope.End()} {
		if err := enc.EncodeToken(tok); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func asMap(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return rv, true
	}
	return reflect.Value{}, false
}

func writeFields(enc *xml.Encoder, m reflect.Value) error {
	keys := make([]string, 0, m.Len())
	for _, k := range m.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := writeValue(enc, k, m.MapIndex(reflect.ValueOf(k).Convert(m.Type().Key())).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func writeValue(enc *xml.Encoder, name string, v any) error {
	start := xml.StartElement{Name: xml.Name{Local: name}}
	if v == nil {
		start.Attr = []xml.Attr{{Name: xml.Name{Local: "xsi:nil"}, Value: "true"}}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	}

	switch t := v.(type) {
	case string:
		return writeText(enc, start, t)
	case []byte:
		return writeText(enc, start, base64.StdEncoding.EncodeToString(t))
	case bool:
		return writeText(enc, start, strconv.FormatBool(t))
	case time.Time:
		return writeText(enc, start, t.Format(time.RFC3339))
	case fmt.Stringer:
		return writeText(enc, start, t.String())
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("field %s: map keys must be strings", name)
		}
		if err := enc.EncodeToken(start); err != nil {
			return err
		}
		if err := writeFields(enc, rv); err != nil {
			return err
		}
		return enc.EncodeToken(start.End())
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := writeValue(enc, name, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Pointer:
		if rv.IsNil() {
			return writeValue(enc, name, nil)
		}
		return writeValue(enc, name, rv.Elem().Interface())
	case reflect.Float32, reflect.Float64:
		return writeText(enc, start, strconv.FormatFloat(rv.Float(), 'f', -1, 64))
	}
	return writeText(enc, start, fmt.Sprint(v))
}

func writeText(enc *xml.Encoder, start xml.StartElement, s string) error {
	if err := enc.EncodeToken(start); err != nil {
		return err
	}
	if err := enc.EncodeToken(xml.CharData(s)); err != nil {
		return err
	}
	return enc.EncodeToken(start.End())
}
