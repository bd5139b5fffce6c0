package http

import "strings"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// APIResponse400Err represents 400 error response.
type APIResponse400Err struct {
	Status  int               `json:"status" example:"400"`
	Message string            `json:"message" example:"Bad Request"`
	Data    []ValidationError `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"window"`
	Message string                 `json:"message,omitempty" example:"window is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// OneOfError builds the ERR_ONEOF detail for a value outside options.
func OneOfError(field string, options []string) ValidationError {
	return ValidationError{
		Code:    "ERR_ONEOF",
		Field:   field,
		Message: field + " must be one of: " + strings.Join(options, ", "),
		Params:  map[string]interface{}{"options": options},
	}
}
