package server

import (
	"net/http"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/documents"
)

type HealthAPI struct {
	*APIBase
}

func NewHealthAPI(logFactory logger.LogFactory) *HealthAPI {
	return &HealthAPI{
		APIBase: NewAPIBase(false, logFactory("HealthAPI")),
	}
}

func (a *HealthAPI) Get(w http.ResponseWriter, r *http.Request) {
	a.JSON(w, r, &documents.HealthDocument{Status: "ok"})
}
