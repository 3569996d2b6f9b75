package cartclient

import (
	"encoding/json"
	"fmt"
)

// ResponseError is returned for every non-2xx response from the cart API.
// It carries the status and the server's message and description verbatim.
type ResponseError struct {
	Op          string
	Status      int
	Message     string
	Description string
	Body        []byte
}

func (e *ResponseError) Error() string {
	switch {
	case e.Message != "" && e.Description != "":
		return fmt.Sprintf("cart %s: %d %s: %s", e.Op, e.Status, e.Message, e.Description)
	case e.Message != "":
		return fmt.Sprintf("cart %s: %d %s", e.Op, e.Status, e.Message)
	default:
		return fmt.Sprintf("cart %s: status %d", e.Op, e.Status)
	}
}

type errorBody struct {
	Status      json.RawMessage `json:"status"`
	Message     string          `json:"message"`
	Description string          `json:"description"`
}

func parseErrorResponse(op string, status int, body []byte) *ResponseError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb) // best effort
	return &ResponseError{
		Op:          op,
		Status:      status,
		Message:     eb.Message,
		Description: eb.Description,
		Body:        body,
	}
}
