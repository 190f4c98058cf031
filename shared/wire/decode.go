package wire

import "encoding/json"

// Decode converts a loosely typed Socket.IO argument (usually a
// map[string]any produced by the parser) into a typed payload.
//
// A nil input leaves out untouched and is not an error.
func Decode(input any, out any) error {
	if input == nil {
		return nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
