package webhook

import "github.com/mohae/deepcopy"

var baseSchema = map[string]any{
	"title":       "Webhook",
	"description": "Set up Webhooks by Zipier",
	"type":        "object",
	"required":    []any{"url"},
	"definitions": map[string]any{
		"data": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"key":   map[string]any{"type": "string"},
				"value": map[string]any{"type": "string"},
			},
		},
	},
	"properties": map[string]any{
		"url": map[string]any{
			"type":  "string",
			"title": "URL",
		},
		"payloadType": map[string]any{
			"type":        "string",
			"title":       "Payload Type",
			"description": "Pay special attention to the proper mapping of the data below.",
			"enum":        []any{"form", "json", "xml"},
			"enumNames":   []any{"Form", "Json", "Xml"},
		},
		"data": map[string]any{
			"type":  "array",
			"title": "Data",
			"description": "If you leave this empty, it will default to including the raw data " +
				"from the previous step. Key, value pairs sent as data.",
			"items": map[string]any{"$ref": "#/definitions/data"},
		},
		"headers": map[string]any{
			"type":        "array",
			"title":       "Headers",
			"description": "Key, value pairs to be added as headers in all requests.",
			"items":       map[string]any{"$ref": "#/definitions/data"},
		},
	},
}

const getDataDescription = "These params will be URL-encoded and appended to the URL when making " +
	"the request. Note: If you specify nothing for this field, we will automatically encode and " +
	"include every field from the previous step in the query string. If you don't want this, use " +
	"the \"Custom Request\" action."

// Schema returns the JSON schema an editor uses for configurations of method
// m. Each call returns an independent copy.
func Schema(m Method) map[string]any {
	schema := deepcopy.Copy(baseSchema).(map[string]any)
	props, _ := schema["properties"].(map[string]any)

	switch m {
	case MethodGet:
		schema["title"] = "Webhook GET"
		schema["description"] = "Set up Webhooks by Zipier GET"
		delete(props, "payloadType")
		if data, ok := props["data"].(map[string]any); ok {
			data["title"] = "Query String Params"
			data["description"] = getDataDescription
		}
	case MethodPost:
		schema["title"] = "Webhook POST"
		schema["description"] = "Set up Webhooks by Zipier POST"
	case MethodPut:
		schema["title"] = "Webhook PUT"
		schema["description"] = "Set up Webhooks by Zipier PUT"
	}
	return schema
}
