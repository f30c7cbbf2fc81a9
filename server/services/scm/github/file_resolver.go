package github

import (
	"context"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// SupportedSchemes lists the Authorization schemes GitHub accepts for raw content.
var SupportedSchemes = []string{"bearer", "token"}

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
		log:        logFactory("GitHubFileResolver"),
	}
}

func (r *FileResolver) Name() models.SystemName {
	return models.GitHubSystem
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
	}
	policy := scm.AuthPolicy{
		Provider:         models.GitHubSystem,
		ServerOrigin:     origin,
		SupportedSchemes: SupportedSchemes,
		OAuth:            r.oauth,
	}
	fetch := func(ctx context.Context, location scm.FileLocation) scm.FetchResult {
		return scm.FetchLocation(ctx, r.fetcher, policy, location, authorization)
	}
	if filePath != "" {
		location := scm.FileLocation{Filename: filePath}
		if ok {
			location.ResolvedURL = repo.RawFileLocation(filePath)
		} else {
			location.ResolvedURL = fallbackLocation(repositoryURL, filePath)
		}
		return scm.FetchSingle(ctx, location, fetch)
	}
	var locations []scm.FileLocation
	if ok {
		locations = repo.DevfileFileLocations()
	} else {
		for _, name := range r.candidates {
			locations = append(locations, scm.FileLocation{Filename: name, ResolvedURL: fallbackLocation(repositoryURL, name)})
		}
	}
	return scm.DiscoverFirst(ctx, r.log.WithField("repository", repositoryURL), locations, fetch)
}

// fallbackLocation is used for GitHub URLs the parser could not make sense of; GitHub
// serves {repo}/raw/{ref}/{path} from the web host as well.
func fallbackLocation(repositoryURL string, filePath string) string {
	return scm.JoinPath(scm.StripGitSuffix(repositoryURL)+"/raw/"+scm.HeadBranch, scm.EscapePath(filePath))
}
