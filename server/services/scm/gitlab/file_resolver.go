package gitlab

import (
	"context"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// SupportedSchemes are the Authorization schemes the provider accepts.
var SupportedSchemes = []string{"bearer"}

type FileResolver struct {
	config     Config
	candidates scm.CandidateFilenames
	fetcher    *scm.Fetcher
	oauth      *scm.OAuthLinker
	log        logger.Log
}

func NewFileResolver(config Config, candidates scm.CandidateFilenames, fetcher *scm.Fetcher, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *FileResolver {
	return &FileResolver{
		config:     config,
		candidates: candidates,
		fetcher:    fetcher,
		oauth:      oauth,
		log:        logFactory("GitLabFileResolver"),
	}
}

func (r *FileResolver) Name() models.SystemName {
	return models.GitLabSystem
}

func (r *FileResolver) Accept(repositoryURL string) bool {
	u, err := scm.ParseURL(repositoryURL)
	return err == nil && scm.HostMatches(u, r.config.origins())
}

func (r *FileResolver) FileContent(ctx context.Context, repositoryURL string, filePath string, authorization string) (*scm.FileContent, error) {
	repo, ok := ParseURL(repositoryURL, r.candidates, r.config)
	origin := publicOrigin
	if ok {
		origin = repo.ServerOrigin()
	} else if u, err := scm.ParseURL(repositoryURL); err == nil {
		origin = scm.Origin(u)
	}
	policy := scm.AuthPolicy{
		Provider:         models.GitLabSystem,
		ServerOrigin:     origin,
		SupportedSchemes: SupportedSchemes,
		OAuth:            r.oauth,
	}
	fetch := func(ctx context.Context, location scm.FileLocation) scm.FetchResult {
		return scm.FetchLocation(ctx, r.fetcher, policy, location, authorization)
	}
	locate := func(name string) scm.FileLocation {
		if ok {
			return scm.FileLocation{Filename: name, ResolvedURL: repo.RawFileLocation(name)}
		}
		return scm.FileLocation{Filename: name, ResolvedURL: fallbackLocation(repositoryURL, name)}
	}
	if filePath != "" {
		return scm.FetchSingle(ctx, locate(filePath), fetch)
	}
	locations := make([]scm.FileLocation, 0, len(r.candidates))
	for _, name := range r.candidates {
		locations = append(locations, locate(name))
	}
	return scm.DiscoverFirst(ctx, r.log.WithField("repository", repositoryURL), locations, fetch)
}

// fallbackLocation uses the web raw endpoint for URLs the parser rejected.
func fallbackLocation(repositoryURL string, filePath string) string {
	return scm.JoinPath(scm.StripGitSuffix(repositoryURL)+"/-/raw/"+scm.HeadBranch, scm.EscapePath(filePath))
}
