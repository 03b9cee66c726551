package kafka

import "encoding/json"

// MustMarshal panics on marshal failure; callers only pass plain structs.
func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
