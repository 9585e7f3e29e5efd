package apiclient

import (
	"bytes"
	"encoding/json"
)

// Page is the backend's paginated list envelope.
type Page[E any] struct {
	Content       []E   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// Envelope is the success wrapper {status, message, data}.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// decodePayload unwraps the data member of a success envelope when there is one,
// otherwise the body is decoded as the payload itself.
func decodePayload(body []byte, out any) error {
	body = bytes.TrimSpace(body)
	if out == nil || len(body) == 0 {
		return nil
	}
	if body[0] == '{' {
		var members map[string]json.RawMessage
		if err := json.Unmarshal(body, &members); err != nil {
			return err
		}
		if data, ok := members["data"]; ok && !bytes.Equal(data, []byte("null")) {
			return json.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(body, out)
}
