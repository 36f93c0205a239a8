package http

// APIResponse is the envelope every endpoint replies with: the status code
// repeated in the body, its text, and the payload.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one failed request-binding rule.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"dataset"`
	Message string                 `json:"message,omitempty" example:"Dataset is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
