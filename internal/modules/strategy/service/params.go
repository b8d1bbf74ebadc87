package service

import "time"

// Параметры инстансов приходят из yaml-пресетов как map[string]interface{},
// числа там могут быть int/int64/float64 — приводим руками.

func floatParam(params map[string]interface{}, key string, def float64) float64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return def
}

func intParam(params map[string]interface{}, key string, def int64) int64 {
	v, ok := params[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		return int64(t)
	}
	return def
}

func stringParam(params map[string]interface{}, key string, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

func stringsParam(params map[string]interface{}, key string) []string {
	switch raw := params[key].(type) {
	case []string:
		return raw
	case []interface{}:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// clockParam парсит "HH:MM" в минуты от полуночи.
func clockParam(params map[string]interface{}, key string, def string) int {
	s := stringParam(params, key, def)
	t, err := time.Parse("15:04", s)
	if err != nil {
		t, _ = time.Parse("15:04", def)
	}
	return t.Hour()*60 + t.Minute()
}
