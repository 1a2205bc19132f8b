package transform

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// isCalendarDate accepts YYYY-MM-DD strings naming a real day.
func isCalendarDate(value any) bool {
	text, ok := value.(string)
	if !ok || !datePattern.MatchString(text) {
		return false
	}
	_, err := time.Parse(dateLayout, text)
	return err == nil
}

// scalarString renders a record value the way Dataverse primitives expect:
// numbers without exponent, booleans as true/false, absent values as "".
func scalarString(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case bool:
		return strconv.FormatBool(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int:
		return strconv.Itoa(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case int32:
		return strconv.FormatInt(int64(typed), 10)
	case json.Number:
		return typed.String()
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	default:
		return fmt.Sprint(typed)
	}
}

func stringList(value any) []string {
	switch typed := value.(type) {
	case []string:
		return append([]string(nil), typed...)
	case []any:
		out := make([]string, 0, len(typed))
		for _, entry := range typed {
			out = append(out, scalarString(entry))
		}
		return out
	case nil:
		return []string{}
	default:
		return []string{scalarString(typed)}
	}
}

func objectList(value any) []map[string]any {
	switch typed := value.(type) {
	case []any:
		out := make([]map[string]any, 0, len(typed))
		for _, entry := range typed {
			if obj, ok := entry.(map[string]any); ok {
				out = append(out, obj)
			}
		}
		return out
	case []map[string]any:
		return typed
	default:
		return nil
	}
}

func truthy(value any) bool {
	switch typed := value.(type) {
	case nil:
		return false
	case bool:
		return typed
	case string:
		return typed != ""
	case float64:
		return typed != 0
	case int:
		return typed != 0
	case json.Number:
		f, err := typed.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

func yesNo(flag bool) string {
	if flag {
		return "Yes"
	}
	return "No"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func present(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	value, ok := m[key]
	return ok && value != nil
}
