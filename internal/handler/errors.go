package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/ogen-go/ogen/validate"
	"go.uber.org/zap"

	"github.com/xenking/coffee-catalog/internal/apierr"
)

var errBodyTooLarge = apierr.New(http.StatusRequestEntityTooLarge, "Request body too large")

// failure is the client-visible form of an error.
type failure struct {
	Status   int
	Message  string
	Details  []apierr.Detail
	Internal bool
}

// translate classifies err. Typed business failures are checked first, then
// validation failures; everything else is an internal error whose text is
// never shown to the client.
func translate(err error) failure {
	var apiErr *apierr.Error
	if errors.As(err, &apiErr) {
		return failure{
			Status:  apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}
	}

	var vErr *validate.Error
	if errors.As(err, &vErr) {
		details := make([]apierr.Detail, len(vErr.Fields))
		for i, f := range vErr.Fields {
			details[i] = apierr.Detail{Field: f.Name, Message: f.Error.Error()}
		}
		return failure{
			Status:  http.StatusBadRequest,
			Message: "Validation failed",
			Details: details,
		}
	}

	return failure{
		Status:   http.StatusInternalServerError,
		Message:  "Internal server error",
		Internal: true,
	}
}

// renderError writes the failure envelope for err. Internal errors are
// logged with the request-scoped logger.
func renderError(w http.ResponseWriter, r *http.Request, err error) {
	f := translate(err)
	if f.Internal {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeFailure(w, f)
}
