package webhook

import "strings"

// Method is the HTTP verb a webhook action is dispatched with.
type Method string

const (
	MethodGet  Method = "GET"
	MethodPost Method = "POST"
	MethodPut  Method = "PUT"
)

// ParseMethod normalizes a stored hook type ("get", "post", "put") to a Method.
// Unknown values are returned as-is and rejected at compile time.
func ParseMethod(s string) Method {
	return Method(strings.ToUpper(strings.TrimSpace(s)))
}

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut:
		return true
	default:
		return false
	}
}

// HookType returns the lowercase form stored on action records.
func (m Method) HookType() string {
	return strings.ToLower(string(m))
}

// PayloadType is the wire encoding of a POST/PUT body.
type PayloadType string

const (
	PayloadForm PayloadType = "form"
	PayloadJSON PayloadType = "json"
	PayloadXML  PayloadType = "xml"
)

// Content types sent by default for each payload type.
const (
	ContentTypeForm = "multipart/form-data"
	ContentTypeJSON = "application/json"
	ContentTypeXML  = "application/xml"
)

// ParsePayloadType maps a configured payload type to a PayloadType.
// Anything unrecognized (including "") is treated as form.
func ParsePayloadType(s string) PayloadType {
	switch PayloadType(s) {
	case PayloadJSON:
		return PayloadJSON
	case PayloadXML:
		return PayloadXML
	default:
		return PayloadForm
	}
}

// ContentType returns the default Content-Type header for the payload type.
func (t PayloadType) ContentType() string {
	switch t {
	case PayloadJSON:
		return ContentTypeJSON
	case PayloadXML:
		return ContentTypeXML
	default:
		return ContentTypeForm
	}
}
