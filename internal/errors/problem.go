package errors

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Extensions are flattened into the top-level JSON object
	Extensions map[string]interface{} `json:"-"`
}

// Render implements render.Renderer
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/problem+json")
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON flattens Extensions next to the standard members
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	type Alias ProblemDetails
	base, err := json.Marshal((*Alias)(pd))
	if err != nil {
		return nil, err
	}
	if len(pd.Extensions) == 0 {
		return base, nil
	}

	merged := make(map[string]interface{}, len(pd.Extensions)+5)
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range pd.Extensions {
		if _, reserved := merged[k]; !reserved {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// NewProblemDetails creates a new problem
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension member
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = make(map[string]interface{})
	}
	pd.Extensions[key] = value
	return pd
}

// ProblemFromStatus builds a bare problem for status
func ProblemFromStatus(status int, problemType, detail, instance string) *ProblemDetails {
	return NewProblemDetails(status, problemType, http.StatusText(status), detail, instance)
}
