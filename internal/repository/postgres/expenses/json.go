package expenses

import "encoding/json"

// jsonOrNull encodes value for a jsonb column. Nil pointers and empty slices become SQL NULL.
func jsonOrNull(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case []string:
		if len(v) == 0 {
			return nil
		}
	}

	data, err := json.Marshal(value)
	if err != nil || string(data) == "null" {
		return nil
	}
	encoded := string(data)
	return &encoded
}
