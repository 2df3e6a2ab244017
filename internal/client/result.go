package client

import (
	"encoding/json"
	"fmt"
)

// Result is the uniform outcome of one ticket API call. Expected failures
// (API rejections, transport errors) are carried as values, never as Go
// errors, so callers have a single shape to fold back to the LLM.
type Result struct {
	Success    bool
	StatusCode *int // nil means the service could not be reached
	Data       any
	Error      string
}

// Ok builds a success result.
func Ok(data any) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failure result. statusCode is nil for transport failures.
func Fail(statusCode *int, errMsg string) Result {
	return Result{Success: false, StatusCode: statusCode, Error: errMsg}
}

// MarshalJSON emits the wire shape consumed by the agent:
// {"success":true,"data":...} or {"success":false,"status_code":...,"error":...}.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    any  `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		Success    bool   `json:"success"`
		StatusCode *int   `json:"status_code"`
		Error      string `json:"error"`
	}{false, r.StatusCode, r.Error})
}

// String renders the result as indented JSON with stable key order.
// Data payloads that cannot be marshaled are stringified instead.
func (r Result) String() string {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		r.Data = fmt.Sprintf("%v", r.Data)
		out, err = json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Sprintf(`{"success": false, "status_code": null, "error": %q}`, err.Error())
		}
	}
	return string(out)
}
