package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/ujpest-analytics/transferroom-sync/internal/domain/history"
)

func getString(src map[string]any, key string) string {
	if src == nil {
		return ""
	}
	raw, ok := src[key]
	if !ok || raw == nil {
		return ""
	}
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func getStringPtr(src map[string]any, key string) *string {
	value := getString(src, key)
	if value == "" {
		return nil
	}
	return &value
}

func getInt64(src map[string]any, key string) int64 {
	if src == nil {
		return 0
	}
	switch typed := src[key].(type) {
	case nil:
		return 0
	case int64:
		return typed
	case int:
		return int64(typed)
	case float64:
		return int64(typed)
	case string:
		value, err := strconv.ParseInt(strings.TrimSpace(typed), 10, 64)
		if err != nil {
			return 0
		}
		return value
	default:
		return 0
	}
}

func getInt64Ptr(src map[string]any, key string) *int64 {
	if src == nil {
		return nil
	}
	if raw, ok := src[key]; !ok || raw == nil {
		return nil
	}
	value := getInt64(src, key)
	if value == 0 {
		return nil
	}
	return &value
}

func getIntPtr(src map[string]any, key string) *int {
	value := getInt64Ptr(src, key)
	if value == nil {
		return nil
	}
	out := int(*value)
	return &out
}

func getFloatPtr(src map[string]any, key string) *float64 {
	if src == nil {
		return nil
	}
	switch typed := src[key].(type) {
	case nil:
		return nil
	case float64:
		return &typed
	case float32:
		value := float64(typed)
		return &value
	case int:
		value := float64(typed)
		return &value
	case int64:
		value := float64(typed)
		return &value
	case string:
		value, err := strconv.ParseFloat(strings.TrimSpace(typed), 64)
		if err != nil {
			return nil
		}
		return &value
	default:
		return nil
	}
}

// getBoolPtr tolerates the provider's habit of sending booleans as strings.
func getBoolPtr(src map[string]any, key string) *bool {
	if src == nil {
		return nil
	}
	switch typed := src[key].(type) {
	case nil:
		return nil
	case bool:
		return &typed
	case string:
		switch strings.ToLower(strings.TrimSpace(typed)) {
		case "true", "t", "yes", "1":
			value := true
			return &value
		case "false", "f", "no", "0":
			value := false
			return &value
		default:
			return nil
		}
	default:
		return nil
	}
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// getDatePtr parses an optional provider date. Absent or empty values map to
// nil; present but unparsable values are a validation failure.
func getDatePtr(src map[string]any, key string) (*time.Time, error) {
	value := getString(src, key)
	if value == "" {
		return nil, nil
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			out := parsed.UTC()
			return &out, nil
		}
	}

	return nil, validationErrorf(key, "unparsable date %q", value)
}

var historyLabelKeys = []string{"Date", "date", "Season", "season", "Year", "year"}

// getHistory decodes a history-of-value blob (JSON text or an already-decoded
// array) into a chronologically sorted snapshot sequence. The provider ships
// malformed history blobs for some records; those degrade to no value, as the
// rest of the record is still usable.
func getHistory(src map[string]any, key string) []history.Snapshot {
	if src == nil {
		return nil
	}

	var items []any
	switch typed := src[key].(type) {
	case nil:
		return nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		if err := sonic.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil
		}
	case []any:
		items = typed
	default:
		return nil
	}

	out := make([]history.Snapshot, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			out = append(out, history.Snapshot{Value: item})
			continue
		}

		label := ""
		for _, labelKey := range historyLabelKeys {
			if candidate := getString(entry, labelKey); candidate != "" {
				label = candidate
				break
			}
		}
		out = append(out, history.Snapshot{Label: label, Value: entry})
	}

	if len(out) == 0 {
		return nil
	}
	return history.SortChronological(out)
}

// getJSONText validates and compacts an embedded JSON value (string or
// decoded structure) into canonical JSON text. Invalid JSON maps to nil.
func getJSONText(src map[string]any, key string) *string {
	if src == nil {
		return nil
	}

	raw, ok := src[key]
	if !ok || raw == nil {
		return nil
	}

	if text, ok := raw.(string); ok {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		var decoded any
		if err := sonic.Unmarshal([]byte(trimmed), &decoded); err != nil {
			return nil
		}
		raw = decoded
	}

	encoded, err := sonic.Marshal(raw)
	if err != nil {
		return nil
	}
	out := string(encoded)
	return &out
}

// SourceLabel names a raw payload by its provider identifier, for error
// reporting. Competitions carry the id under "Id", players under "TR_ID".
func SourceLabel(kind string, raw map[string]any) string {
	key := "TR_ID"
	if kind == "competitions" {
		key = "Id"
	}
	if id, ok := raw[key]; ok && id != nil {
		return fmt.Sprintf("%v", id)
	}
	return "<no id>"
}
