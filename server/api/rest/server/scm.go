package server

import (
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/h2non/filetype"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/server/api/rest/middleware"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/scm"
)

type SCMAPI struct {
	scmFileService services.SCMFileService
	*APIBase
}

func NewSCMAPI(
	scmFileService services.SCMFileService,
	includeErrorDetail DevIncludeErrorDetail,
	logFactory logger.LogFactory) *SCMAPI {

	return &SCMAPI{
		scmFileService: scmFileService,
		APIBase:        NewAPIBase(includeErrorDetail, logFactory("SCMAPI")),
	}
}

// ResolveFile serves the raw content of ?file= from ?repository= as an attachment.
func (a *SCMAPI) ResolveFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	repository := strings.TrimSpace(query.Get("repository"))
	if repository == "" {
		a.Error(w, r, gerror.NewErrInvalidQueryParameter("Missing repository parameter"))
		return
	}
	content, err := a.scmFileService.ResolveFile(r.Context(), middleware.Identity(r), r.Header.Get("Authorization"), repository, query.Get("file"))
	if err != nil {
		a.Error(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType(content.Content))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", scm.BaseName(content.Location.Filename)))
	w.WriteHeader(http.StatusOK)
	w.Write(content.Content)
}

// contentType sniffs binary formats and treats any other valid UTF-8 as text.
func contentType(content []byte) string {
	kind, err := filetype.Match(content)
	if err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	if utf8.Valid(content) {
		return "text/plain; charset=utf-8"
	}
	return "application/octet-stream"
}
