package jsonshape

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/alisaviation/metricboard/internal/models"
)

// Normalize converts JSON metric payloads into metric records. Two top-level
// shapes are accepted:
//
//	[{"name": "m", "value": 1, "labels": {...}}, ...]
//	{"m": 1, "n": {"value": 2, "labels": {...}}, ...}
//
// Entries that do not match either shape are dropped; malformed JSON or any
// other top-level value yields an empty result, never an error.
func Normalize(data []byte) []models.Metric {
	var top any
	if err := json.Unmarshal(data, &top); err != nil {
		return nil
	}

	switch v := top.(type) {
	case []any:
		return fromSequence(v)
	case map[string]any:
		return fromMapping(v)
	default:
		return nil
	}
}

func fromSequence(items []any) []models.Metric {
	var metrics []models.Metric
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, ok := obj["name"].(string)
		if !ok || name == "" {
			continue
		}
		value, ok := obj["value"].(float64)
		if !ok {
			continue
		}
		metrics = append(metrics, models.Metric{
			Name:   name,
			Value:  value,
			Labels: toLabels(obj["labels"]),
		})
	}
	return metrics
}

func fromMapping(entries map[string]any) []models.Metric {
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var metrics []models.Metric
	for _, name := range names {
		if name == "" {
			continue
		}
		switch v := entries[name].(type) {
		case float64:
			metrics = append(metrics, models.Metric{Name: name, Value: v})
		case map[string]any:
			value, ok := toFinite(v["value"])
			if !ok {
				continue
			}
			metrics = append(metrics, models.Metric{
				Name:   name,
				Value:  value,
				Labels: toLabels(v["labels"]),
			})
		}
	}
	return metrics
}

// toFinite accepts JSON numbers and numeric strings, requiring a finite result.
func toFinite(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// toLabels passes a labels object through: string values as-is, numbers and
// booleans rendered, nested structures dropped.
func toLabels(v any) map[string]string {
	obj, ok := v.(map[string]any)
	if !ok || len(obj) == 0 {
		return nil
	}
	labels := make(map[string]string, len(obj))
	for key, val := range obj {
		switch lv := val.(type) {
		case string:
			labels[key] = lv
		case float64:
			labels[key] = strconv.FormatFloat(lv, 'f', -1, 64)
		case bool:
			labels[key] = strconv.FormatBool(lv)
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return labels
}
