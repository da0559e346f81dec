package mood

import (
	"fmt"
	"sort"
)

// DebugInfo summarizes a raw log set for troubleshooting upstream data
type DebugInfo struct {
	TotalLogs              int               `json:"total_logs"`
	SampleLog              RawLog            `json:"sample_log"`
	DataTypes              map[string]string `json:"data_types"`
	UniqueCategories       []string          `json:"unique_categories"`
	UniqueAfterValences    []string          `json:"unique_after_valences"`
	SampleAfterIntensities []any             `json:"sample_after_intensities"`
}

const sampleSize = 5

// Inspect describes the shape of the raw logs without validating them
func Inspect(logs []RawLog) DebugInfo {
	info := DebugInfo{
		TotalLogs:              len(logs),
		DataTypes:              map[string]string{},
		UniqueCategories:       []string{},
		UniqueAfterValences:    []string{},
		SampleAfterIntensities: []any{},
	}
	if len(logs) == 0 {
		return info
	}

	info.SampleLog = logs[0]
	for key, value := range logs[0] {
		info.DataTypes[key] = jsonType(value)
	}

	info.UniqueCategories = uniqueValues(logs, FieldCategory)
	info.UniqueAfterValences = uniqueValues(logs, FieldAfterValence)

	for i, rec := range logs {
		if i == sampleSize {
			break
		}
		info.SampleAfterIntensities = append(info.SampleAfterIntensities, rec[FieldAfterIntensity])
	}
	return info
}

func uniqueValues(logs []RawLog, field string) []string {
	seen := make(map[string]bool)
	values := []string{}
	for _, rec := range logs {
		v := "null"
		if raw, ok := rec[field]; ok && raw != nil {
			v = fmt.Sprint(raw)
		}
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
		}
	}
	sort.Strings(values)
	return values
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any, RawLog:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
