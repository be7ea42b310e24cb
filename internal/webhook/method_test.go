package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseMethod(t *testing.T) {
	assert.Equal(t, MethodGet, ParseMethod("get"))
	assert.Equal(t, MethodPost, ParseMethod(" Post "))
	assert.Equal(t, MethodPut, ParseMethod("PUT"))
	assert.False(t, ParseMethod("delete").Valid())
	assert.Equal(t, "post", MethodPost.HookType())
}

func TestParsePayloadType(t *testing.T) {
	cases := map[string]PayloadType{
		"json": PayloadJSON,
		"xml":  PayloadXML,
		"form": PayloadForm,
		"":     PayloadForm,
		"JSON": PayloadForm,
		"csv":  PayloadForm,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParsePayloadType(in), in)
	}
	assert.Equal(t, "multipart/form-data", PayloadForm.ContentType())
	assert.Equal(t, "application/json", PayloadJSON.ContentType())
	assert.Equal(t, "application/xml", PayloadXML.ContentType())
}

func TestDecodeTree_Invalid(t *testing.T) {
	_, err := DecodeTree([]byte(`{"url": `))
	assert.ErrorIs(t, err, ErrInvalidJSON)

	_, err = ParseConfig("get", []byte(`nope`))
	assert.ErrorIs(t, err, ErrInvalidJSON)
}
