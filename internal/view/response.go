package view

// Response is the envelope every API handler answers with
type Response[T any] struct {
	Data    T           `json:"data"`
	Error   string      `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
	Message string      `json:"message,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Data    string `json:"data"`
	Message string `json:"message,omitempty"`
}

func CreateResponse[T any](data T, err error, meta interface{}, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Meta:    meta,
		Message: message,
	}
	if err != nil {
		resp.Error = err.Error()
	}
	if s, ok := meta.(string); ok && s == "" {
		resp.Meta = nil
	}
	return resp
}
