package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/documents"
)

// DevIncludeErrorDetail adds the internal error text to every error response. Only
// for use in development.
type DevIncludeErrorDetail bool

type APIBase struct {
	logger.Log
	includeErrorDetail DevIncludeErrorDetail
}

func NewAPIBase(includeErrorDetail DevIncludeErrorDetail, logger logger.Log) *APIBase {
	return &APIBase{
		includeErrorDetail: includeErrorDetail,
		Log:                logger,
	}
}

// JSON marshals 'v' to JSON, automatically escaping HTML and setting the
// Content-Type as application/json. Copied from chi/render.JSON and updated
// to log serialization errors.
func (a *APIBase) JSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		a.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status, ok := r.Context().Value(render.StatusCtxKey).(int); ok {
		w.WriteHeader(status)
	}
	w.Write(buf.Bytes())
}

// NoContent writes an empty 204 response.
func (a *APIBase) NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes the specified error to the http response as a standard
// API error document. Errors are sanitized for public display before
// being written. Status code is automatically inferred from the error.
// The error is logged to the server log at a Warning level.
func (a *APIBase) Error(w http.ResponseWriter, r *http.Request, err error) {
	a.Warnf("Error in API call: %v", err)
	a.ErrorNotLogged(w, r, err)
}

// ErrorNotLogged writes the specified error to the http response without logging it.
// AuthenticationRequired errors are written in the shape the dashboard uses to start an
// OAuth flow; everything else is written as an ErrorDocument.
func (a *APIBase) ErrorNotLogged(w http.ResponseWriter, r *http.Request, err error) {
	// Look down through the chain of wrapped errors, including errors wrapped using fmt.Errorf(), and
	// and find the first error which is a gerror.Error
	var gErr gerror.Error
	if !errors.As(err, &gErr) || gErr.Audience() != gerror.AudienceExternal {
		gErr = gerror.NewErrInternal()
	}
	r = r.WithContext(context.WithValue(r.Context(), render.StatusCtxKey, gErr.HTTPStatusCode()))

	if gErr.Code() == gerror.ErrCodeAuthenticationRequired {
		a.JSON(w, r, &documents.AuthenticationRequiredDocument{
			ErrorCode:  gErr.HTTPStatusCode(),
			Message:    gErr.Message(),
			Attributes: gErr.ExternalDetails(),
		})
		return
	}

	doc := &documents.ErrorDocument{
		Error:   gErr.Code(),
		Message: gErr.Message(),
		Details: gErr.ExternalDetails(),
	}
	if a.includeErrorDetail {
		doc.InternalError = err.Error()
	}
	a.JSON(w, r, doc)
}
