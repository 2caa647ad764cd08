// Package response holds the JSON envelope shared by every HTTP endpoint.
package response

type APIResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// ValidationErrors maps request field names to the rule they broke.
type ValidationErrors map[string]string
