package webhook

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"strings"
)

// Body is an encoded request body. Form bodies keep the mapping so the
// transport can write it as multipart; JSON and XML bodies are ready bytes.
type Body struct {
	Type  PayloadType
	Form  *Mapping
	Bytes []byte
}

// EncodeQuery renders m as "?k1=v1&k2=v2" in mapping order. Values are not
// escaped; callers must sanitize them beforehand. An empty string means there
// is no query to append.
func EncodeQuery(m *Mapping) string {
	if m == nil || m.Len() == 0 {
		return ""
	}
	var sb strings.Builder
	sep := "?"
	for p := m.Oldest(); p != nil; p = p.Next() {
		sb.WriteString(sep)
		sb.WriteString(p.Key)
		sb.WriteByte('=')
		sb.WriteString(text(p.Value))
		sep = "&"
	}
	return sb.String()
}

// EncodeBody encodes m for a POST/PUT request. A nil Body means no payload.
func EncodeBody(m *Mapping, t PayloadType) (*Body, error) {
	if m == nil || m.Len() == 0 {
		return nil, nil
	}
	switch t {
	case PayloadJSON:
		b, err := m.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encode json payload: %w", err)
		}
		return &Body{Type: PayloadJSON, Bytes: b}, nil
	case PayloadXML:
		return &Body{Type: PayloadXML, Bytes: EncodeXML(m)}, nil
	default:
		return &Body{Type: PayloadForm, Form: m}, nil
	}
}

// encodeMultipart writes a form mapping as multipart/form-data, one field per
// entry in mapping order.
func encodeMultipart(m *Mapping) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for p := m.Oldest(); p != nil; p = p.Next() {
		if err := w.WriteField(p.Key, text(p.Value)); err != nil {
			return nil, "", fmt.Errorf("write form field %s: %w", p.Key, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart body: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
