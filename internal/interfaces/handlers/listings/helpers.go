package listings

import "fmt"

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// numField returns a nil pointer when the key is absent or null, and an
// error when the value is present but not numeric. Presence of required
// numbers is checked downstream, where a nil pointer fails validation.
func numField(body map[string]interface{}, key string) (*float64, error) {
	v, ok := body[key]
	if !ok || v == nil {
		return nil, nil
	}
	n, ok := toFloat(v)
	if !ok {
		return nil, fmt.Errorf("field %s must be a number", key)
	}
	return &n, nil
}

// optString returns nil when the key is absent or null, so GORM skips it.
func optString(body map[string]interface{}, key string) *string {
	v, ok := body[key]
	if !ok || v == nil {
		return nil
	}
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

func optInt(body map[string]interface{}, key string) *int {
	v, ok := body[key]
	if !ok || v == nil {
		return nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	n := int(f)
	return &n
}

func asStrings(v interface{}) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []interface{}:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
