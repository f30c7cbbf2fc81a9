package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/render"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/documents"
	"github.com/devboard/devboard/server/api/rest/middleware"
	"github.com/devboard/devboard/server/services"
)

type FactoryAPI struct {
	factoryService services.FactoryService
	*APIBase
}

func NewFactoryAPI(
	factoryService services.FactoryService,
	includeErrorDetail DevIncludeErrorDetail,
	logFactory logger.LogFactory) *FactoryAPI {

	return &FactoryAPI{
		factoryService: factoryService,
		APIBase:        NewAPIBase(includeErrorDetail, logFactory("FactoryAPI")),
	}
}

// Resolve turns the request body, e.g. {"url": "https://github.com/org/repo"}, into a factory.
func (a *FactoryAPI) Resolve(w http.ResponseWriter, r *http.Request) {
	body := make(map[string]interface{})
	err := render.DecodeJSON(r.Body, &body)
	if err != nil && !errors.Is(err, io.EOF) {
		a.Error(w, r, gerror.NewErrValidationFailed("Request body must be a JSON object").Wrap(err))
		return
	}
	params := documents.MakeFactoryParameters(body, r.URL.Query())
	factory, err := a.factoryService.ResolveFactory(r.Context(), middleware.Identity(r), r.Header.Get("Authorization"), params)
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.JSON(w, r, documents.MakeFactoryDocument(factory))
}

func (a *FactoryAPI) RefreshToken(w http.ResponseWriter, r *http.Request) {
	err := a.factoryService.RefreshToken(r.Context(), middleware.Identity(r), r.URL.Query().Get("url"))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.NoContent(w, r)
}

func (a *FactoryAPI) RejectAuthorisation(w http.ResponseWriter, r *http.Request) {
	err := a.factoryService.RejectAuthorisation(r.Context(), middleware.Identity(r), r.URL.Query().Get("url"))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.NoContent(w, r)
}

func (a *FactoryAPI) ClearRejection(w http.ResponseWriter, r *http.Request) {
	err := a.factoryService.ClearRejection(r.Context(), middleware.Identity(r), r.URL.Query().Get("url"))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	a.NoContent(w, r)
}
