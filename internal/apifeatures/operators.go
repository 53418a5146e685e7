package apifeatures

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var operatorPattern = regexp.MustCompile(`\b(gte|gt|lte|lt)\b`)

// ReplaceOperators prefixes every whole word gte, gt, lte and lt in the JSON
// rendering of filter with "$" and decodes the result. Values that happen to be
// one of those words are rewritten too.
func ReplaceOperators(filter map[string]interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(filter)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	rewritten := operatorPattern.ReplaceAll(raw, []byte(`$$$1`))

	out := map[string]interface{}{}
	if err := json.Unmarshal(rewritten, &out); err != nil {
		return nil, fmt.Errorf("decode filter: %w", err)
	}
	return out, nil
}
