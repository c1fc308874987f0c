package sink

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/timw/docuflow/internal/domain"
)

// Flatten converts a possibly nested extracted record into a single tabular
// row. Nested objects produce dotted column names ("vendor.name"); arrays are
// kept as one JSON-encoded cell.
// Parameters:
//   - record: extracted record to flatten.
// Returns:
//   - map[string]string: column name to cell value.
func Flatten(record domain.ExtractedRecord) map[string]string {
	out := make(map[string]string)
	for key, value := range record {
		flattenInto(key, value, out)
	}
	return out
}

func flattenInto(prefix string, value interface{}, out map[string]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		for key, nested := range v {
			flattenInto(prefix+"."+key, nested, out)
		}
	case []interface{}:
		encoded, err := json.Marshal(v)
		if err != nil {
			out[prefix] = fmt.Sprint(v)
			return
		}
		out[prefix] = string(encoded)
	default:
		out[prefix] = formatCell(v)
	}
}

// formatCell renders a scalar JSON value as a cell string.
func formatCell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}
