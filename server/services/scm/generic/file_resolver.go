package generic

import (
	"context"
	"strings"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// SupportedSchemes are the Authorization schemes the provider accepts.
var SupportedSchemes = []string{"bearer", "basic", "token"}

// FileResolver serves plain http(s) git hosts that no provider resolver recognised.
// Files are fetched by appending their path to the repository URL.
type FileResolver struct {
	candidates scm.CandidateFilenames
	fetcher    *scm.Fetcher
	log        logger.Log
}

func NewFileResolver(candidates scm.CandidateFilenames, fetcher *scm.Fetcher, logFactory logger.LogFactory) *FileResolver {
	return &FileResolver{
		candidates: candidates,
		fetcher:    fetcher,
		log:        logFactory("GenericFileResolver"),
	}
}

func (r *FileResolver) Name() models.SystemName {
	return models.GenericGitSystem
}

// Accept returns true for any absolute URL.
func (r *FileResolver) Accept(repositoryURL string) bool {
	_, err := scm.ParseURL(repositoryURL)
	return err == nil
}

func (r *FileResolver) FileContent(ctx context.Context, repositoryURL string, filePath string, authorization string) (*scm.FileContent, error) {
	u, err := scm.ParseURL(repositoryURL)
	if err != nil {
		return nil, err
	}
	policy := scm.AuthPolicy{
		Provider:         models.GenericGitSystem,
		ServerOrigin:     scm.Origin(u),
		SupportedSchemes: SupportedSchemes,
		PlainNotFound:    true,
	}
	fetch := func(ctx context.Context, location scm.FileLocation) scm.FetchResult {
		return scm.FetchLocation(ctx, r.fetcher, policy, location, authorization)
	}
	base := u.String()
	if filePath != "" {
		return scm.FetchSingle(ctx, scm.FileLocation{Filename: filePath, ResolvedURL: Location(base, filePath)}, fetch)
	}
	locations := make([]scm.FileLocation, 0, len(r.candidates))
	for _, name := range r.candidates {
		locations = append(locations, scm.FileLocation{Filename: name, ResolvedURL: Location(base, name)})
	}
	return scm.DiscoverFirst(ctx, r.log.WithField("repository", repositoryURL), locations, fetch)
}

// Location returns the URL of filePath inside the repository at repositoryURL. A URL that
// already ends with filePath is returned unchanged.
func Location(repositoryURL string, filePath string) string {
	trimmed := strings.TrimLeft(filePath, "/")
	if trimmed == "" || strings.HasSuffix(strings.TrimRight(repositoryURL, "/"), "/"+trimmed) {
		return repositoryURL
	}
	return scm.JoinPath(repositoryURL, scm.EscapePath(trimmed))
}
