package requests

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// PayloadPath is the member of the response envelope that carries endpoint data.
const PayloadPath = "payload"

var errInvalidJSON = errors.New("response is not valid JSON")

// ExtractPath returns a PostProcess that selects path (gjson syntax) from the
// response body. The selected value is returned as json.RawMessage; a missing
// path yields JSON null.
func ExtractPath(path string) func([]byte) (any, error) {
	return func(body []byte) (any, error) {
		if !gjson.ValidBytes(body) {
			return nil, errInvalidJSON
		}
		res := gjson.GetBytes(body, path)
		if !res.Exists() {
			return json.RawMessage("null"), nil
		}
		return json.RawMessage(res.Raw), nil
	}
}

// DecodePath is ExtractPath followed by decoding into a T.
func DecodePath[T any](path string) func([]byte) (any, error) {
	extract := ExtractPath(path)
	return func(body []byte) (any, error) {
		raw, err := extract(body)
		if err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal(raw.(json.RawMessage), &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return v, nil
	}
}
