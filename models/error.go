package models

// Error is the JSON body of every failed request.
type Error struct {
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// Message is the JSON body of a successful request that carries no data.
type Message struct {
	Message string `json:"message"`
}
