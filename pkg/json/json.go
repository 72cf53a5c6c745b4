package json

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/meetscribe/backend/pkg/apierr"
)

func ParseJSON(r *http.Request, model any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}

	return json.NewDecoder(r.Body).Decode(model)
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

// WriteData wraps the payload in the {data} envelope.
func WriteData(w http.ResponseWriter, status int, v any) error {
	return WriteJSON(w, status, map[string]any{"data": v})
}

// WriteError converts any error into the uniform {error} envelope with
// the status code from the taxonomy.
func WriteError(w http.ResponseWriter, err error) {
	e := apierr.From(err)
	WriteJSON(w, apierr.StatusCode(e), map[string]string{"error": e.Message()})
}
