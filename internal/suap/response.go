package suap

import (
	"encoding/json"
	"io"
)

type Status string

const (
	StatusSuccess Status = "Success"
	StatusError   Status = "Error"
)

// Response is the envelope every use case terminates with.
type Response struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func Success(message string, data any) Response {
	return Response{Status: StatusSuccess, Message: message, Data: data}
}

// Failure builds an error envelope, a nil data is rendered as an empty list.
func Failure(message string, data any) Response {
	if data == nil {
		data = []any{}
	}
	return Response{Status: StatusError, Message: message, Data: data}
}

func (r Response) OK() bool {
	return r.Status == StatusSuccess
}

// Write prints the envelope as indented json.
func (r Response) Write(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(r)
}
