package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/goliatone/go-rmg-dashboard/components/dashboard"
)

// Record is one drillable row of a widget payload.
type Record struct {
	Key   string
	Label string
}

var (
	recordCollections = []string{"rows", "stages"}
	recordKeyFields   = []string{"id", "code", "status", "name"}
	recordSummary     = []string{"name", "project", "skill", "location", "sla", "count", "gap", "utilization", "days", "burn"}
)

// Records lists the rows of a widget payload keyed the way the provider's
// detail lookup expects them.
func Records(data dashboard.WidgetData) []Record {
	for _, field := range recordCollections {
		raw, ok := data[field]
		if !ok {
			continue
		}
		rows, err := asRows(raw)
		if err != nil || len(rows) == 0 {
			continue
		}
		out := make([]Record, 0, len(rows))
		for _, row := range rows {
			key := recordKey(row)
			if key == "" {
				continue
			}
			out = append(out, Record{Key: key, Label: summarize(key, row)})
		}
		return out
	}
	return nil
}

func asRows(raw any) ([]map[string]any, error) {
	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(buf, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func recordKey(row map[string]any) string {
	for _, field := range recordKeyFields {
		if v, ok := row[field].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func summarize(key string, row map[string]any) string {
	parts := []string{key}
	for _, field := range recordSummary {
		v, ok := row[field]
		if !ok || v == nil {
			continue
		}
		text := formatValue(v)
		if text == "" || text == key {
			continue
		}
		parts = append(parts, field+"="+text)
	}
	return strings.Join(parts, "  ")
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%.2f", val)
	case bool:
		if val {
			return "yes"
		}
		return ""
	default:
		return ""
	}
}
