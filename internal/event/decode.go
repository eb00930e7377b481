package event

import "encoding/json"

// DecodePayload recovers a typed payload from a bus event. Handlers in the
// same process receive the concrete struct and assert directly; payloads that
// went through serialization (the dead-letter log, for one) arrive as generic
// JSON values and take the marshal/unmarshal path instead.
func DecodePayload[T any](payload any) (T, error) {
	if typed, ok := payload.(T); ok {
		return typed, nil
	}
	var decoded T
	raw, err := json.Marshal(payload)
	if err != nil {
		return decoded, err
	}
	return decoded, json.Unmarshal(raw, &decoded)
}
