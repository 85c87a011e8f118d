package restapi

import (
	"encoding/json"
	"net/http"

	"paradero.urbanbus.org/internal/logging"
	"paradero.urbanbus.org/internal/models"
)

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.Logger, "internal server error",
		err,
		"method", r.Method,
		"path", r.URL.Path,
	)

	setJSONResponseType(&w)
	w.WriteHeader(http.StatusInternalServerError)

	response := models.ResponseModel{
		Code:        http.StatusInternalServerError,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        "the server encountered a problem and could not process your request",
		Version:     2,
	}

	// Best effort; the status header is already written.
	_ = json.NewEncoder(w).Encode(response)
}

func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	setJSONResponseType(&w)
	w.WriteHeader(http.StatusBadRequest)

	response := models.ResponseModel{
		Code:        http.StatusBadRequest,
		CurrentTime: models.ResponseCurrentTime(api.Clock),
		Text:        "validation error",
		Version:     2,
		Data:        map[string]any{"fieldErrors": fieldErrors},
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "failed to encode validation error response", err)
	}
}
