package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/twiced-technology-gmbh/swarmwatch/internal/clierr"
)

// JSON writes data as indented JSON to the given writer.
func JSON(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ErrorResponse is the {error, code, details} envelope shared by the CLI
// in JSON mode and the HTTP API.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse builds the envelope for err.
func NewErrorResponse(err *clierr.Error) ErrorResponse {
	return ErrorResponse{Error: err.Message, Code: err.Code, Details: err.Details}
}

// JSONError writes err to w as an indented envelope. Write failures are
// ignored; there is nowhere left to report them.
func JSONError(w io.Writer, err *clierr.Error) {
	_ = JSON(w, NewErrorResponse(err))
}
