package webhook

import "fmt"

// Config is a webhook action configuration: the method it is dispatched with
// and the decoded JSON configuration tree (url, payloadType, data, headers).
// The compiler never mutates Tree.
type Config struct {
	Method Method
	Tree   any
}

// ParseConfig decodes a stored configuration blob for the given hook type.
func ParseConfig(hookType string, raw []byte) (*Config, error) {
	tree, err := DecodeTree(raw)
	if err != nil {
		return nil, fmt.Errorf("parse webhook config: %w", err)
	}
	return &Config{Method: ParseMethod(hookType), Tree: tree}, nil
}

// URL returns the top-level url, or "" when absent or not a string.
func (c *Config) URL() string {
	v, _ := lookup(c.Tree, "url")
	s, _ := v.(string)
	return s
}

// PayloadType returns the configured payload type, defaulting to form.
func (c *Config) PayloadType() PayloadType {
	v, _ := lookup(c.Tree, "payloadType")
	s, _ := v.(string)
	return ParsePayloadType(s)
}

// Headers returns the declared headers: the first "headers" entry found
// anywhere in the tree, flattened. Nil when there are none.
func (c *Config) Headers() *Mapping {
	_, v, ok := First(Key("headers"), c.Tree)
	if !ok {
		return nil
	}
	return Flatten(v)
}

// Data returns the first "data" entry found anywhere in the tree, flattened.
// Nil means no data was configured.
func (c *Config) Data() *Mapping {
	_, v, ok := First(Key("data"), c.Tree)
	if !ok {
		return nil
	}
	return Flatten(v)
}
