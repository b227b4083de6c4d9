package proto

import (
	"encoding/json"
	"fmt"
)

// Encode wraps a payload in an envelope and marshals the whole frame.
func Encode(kind string, payload any) ([]byte, error) {
	if kind == "" {
		return nil, fmt.Errorf("encode: empty message kind")
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return json.Marshal(Envelope{Kind: kind, Data: data})
}

// DecodeEnvelope parses the outer frame without touching the payload.
func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty frame")
	}
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Envelope{}, err
	}
	if env.Kind == "" {
		return Envelope{}, fmt.Errorf("decode: frame missing kind")
	}
	return env, nil
}

// DecodePayload unmarshals an envelope payload into the requested type.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("empty payload for kind %q", env.Kind)
	}
	err := json.Unmarshal(env.Data, &out)
	return out, err
}
