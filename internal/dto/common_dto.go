package dto

type ErrorResponse struct {
	Error   bool         `json:"error"`
	Message string       `json:"message"`
	Fields  []FieldError `json:"fields,omitempty"`
}

// FieldError names one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
