package metadata

import (
	"encoding/json"
	"fmt"
	"time"

	"zipier/internal/store"
	"zipier/internal/webhook"
)

// DefaultActionTitle is given to actions created without a title.
const DefaultActionTitle = "Webhook Action"

// Zip groups the webhook actions that fire together when it is triggered.
type Zip struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Notes     string    `json:"notes"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Action is a single webhook call belonging to a zip. Data holds the webhook
// configuration (url, payloadType, data, headers); HookType selects the method.
type Action struct {
	ID        string          `json:"id"`
	ZipID     string          `json:"zip_id"`
	Title     string          `json:"title"`
	HookType  string          `json:"hook_type"`
	Data      json.RawMessage `json:"data"`
	Condition string          `json:"condition,omitempty"`
	Position  int             `json:"position"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Method returns the HTTP method the action is dispatched with.
func (a *Action) Method() webhook.Method {
	return webhook.ParseMethod(a.HookType)
}

// WebhookConfig decodes the action's stored configuration.
func (a *Action) WebhookConfig() (*webhook.Config, error) {
	return webhook.ParseConfig(a.HookType, a.Data)
}

// ZipFromRow builds a Zip from a row returned by store.QueryRows.
func ZipFromRow(row map[string]any) *Zip {
	return &Zip{
		ID:        stringValue(row["id"]),
		Title:     stringValue(row["title"]),
		Notes:     stringValue(row["notes"]),
		Active:    boolValue(row["active"]),
		CreatedAt: store.TimeValue(row["created_at"]),
		UpdatedAt: store.TimeValue(row["updated_at"]),
	}
}

// ActionFromRow builds an Action from a row returned by store.QueryRows.
func ActionFromRow(row map[string]any) *Action {
	return &Action{
		ID:        stringValue(row["id"]),
		ZipID:     stringValue(row["zip_id"]),
		Title:     stringValue(row["title"]),
		HookType:  stringValue(row["hook_type"]),
		Data:      json.RawMessage(stringValue(row["data"])),
		Condition: stringValue(row["condition"]),
		Position:  int(intValue(row["position"])),
		CreatedAt: store.TimeValue(row["created_at"]),
		UpdatedAt: store.TimeValue(row["updated_at"]),
	}
}

func stringValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func boolValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		return val != 0
	default:
		return false
	}
}

func intValue(v any) int64 {
	switch val := v.(type) {
	case int64:
		return val
	case int32:
		return int64(val)
	case int:
		return int64(val)
	case float64:
		return int64(val)
	default:
		return 0
	}
}
