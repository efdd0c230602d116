package web

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"

	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

// apiParams reads query parameters from a JSON object of strings or, for
// other content types, from the form.
func apiParams(r *http.Request) (viewer.QueryParameters, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct != "application/json" {
		return queryParams(r)
	}

	var params viewer.QueryParameters
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxFormBytes))
	if err := dec.Decode(&params); err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	if params.Type() == "" {
		return nil, fmt.Errorf("%w: missing field %q", errBadRequest, "type")
	}
	return params, nil
}
