package webhook

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"strings"
	"unicode"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8" ?>`

// EncodeXML renders m as an XML document under a <root> element. Every entry
// becomes an element named after its key with a type attribute; nested
// mappings and lists become nested elements, list members named <item>.
// Keys that are not valid element names are written as <key name="...">.
func EncodeXML(m *Mapping) []byte {
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	buf.WriteString("<root>")
	writeXMLEntries(&buf, m)
	buf.WriteString("</root>")
	return buf.Bytes()
}

func writeXMLEntries(buf *bytes.Buffer, node any) {
	pairs, ok := entries(node)
	if !ok {
		return
	}
	for k, v := range pairs {
		writeXMLElement(buf, k, v)
	}
}

func writeXMLElement(buf *bytes.Buffer, key string, value any) {
	name, attr := xmlName(key)

	buf.WriteByte('<')
	buf.WriteString(name)
	if attr != "" {
		buf.WriteString(` name="`)
		xml.EscapeText(buf, []byte(attr))
		buf.WriteByte('"')
	}
	buf.WriteString(` type="`)
	buf.WriteString(xmlType(value))
	buf.WriteString(`">`)

	switch v := value.(type) {
	case nil:
	case []any:
		for _, item := range v {
			writeXMLElement(buf, "item", item)
		}
	default:
		if _, isMapping := entries(v); isMapping {
			writeXMLEntries(buf, v)
		} else {
			xml.EscapeText(buf, []byte(xmlText(v)))
		}
	}

	buf.WriteString("</")
	buf.WriteString(name)
	buf.WriteByte('>')
}

func xmlType(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "str"
	case bool:
		return "bool"
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return "float"
		}
		return "int"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case []any:
		return "list"
	}
	if _, isMapping := entries(v); isMapping {
		return "dict"
	}
	return "str"
}

func xmlText(v any) string {
	if b, ok := v.(bool); ok {
		if b {
			return "true"
		}
		return "false"
	}
	return text(v)
}

// xmlName returns the element name for key and, when key had to be replaced,
// the original key to carry in a name attribute.
func xmlName(key string) (string, string) {
	if key != "" && isDigits(key) {
		return "n" + key, ""
	}
	candidate := strings.ReplaceAll(key, " ", "_")
	if validXMLName(candidate) {
		return candidate, ""
	}
	return "key", key
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case unicode.IsLetter(r), r == '_':
		case i > 0 && (unicode.IsDigit(r) || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
