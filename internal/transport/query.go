package transport

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// encodeQuery turns a GET payload into query parameters. Structs are accepted
// when they marshal to a JSON object; nil values are skipped.
func encodeQuery(payload any) (url.Values, error) {
	switch p := payload.(type) {
	case url.Values:
		return p, nil
	case map[string]string:
		values := make(url.Values, len(p))
		for k, v := range p {
			values.Set(k, v)
		}
		return values, nil
	case map[string]any:
		return valuesFromMap(p), nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("encoding query: payload must be an object, got %T", payload)
	}
	return valuesFromMap(obj), nil
}

func valuesFromMap(m map[string]any) url.Values {
	values := make(url.Values, len(m))
	for k, v := range m {
		for _, s := range formatQueryValue(v) {
			values.Add(k, s)
		}
	}
	return values
}

func formatQueryValue(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return []string{val}
	case bool:
		return []string{strconv.FormatBool(val)}
	case float64:
		return []string{strconv.FormatFloat(val, 'f', -1, 64)}
	case int:
		return []string{strconv.Itoa(val)}
	case int64:
		return []string{strconv.FormatInt(val, 10)}
	case []string:
		return val
	case []any:
		var out []string
		for _, item := range val {
			out = append(out, formatQueryValue(item)...)
		}
		return out
	case fmt.Stringer:
		return []string{val.String()}
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return []string{fmt.Sprint(val)}
		}
		return []string{string(raw)}
	}
}

func appendQuery(target string, query url.Values) string {
	if len(query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}
