package bitbucket

import (
	"context"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// SupportedSchemes are the Authorization schemes the provider accepts.
var SupportedSchemes = []string{"bearer", "basic"}

// DefaultBranchCandidates are tried, in order, when a URL names no branch. Bitbucket's
// raw endpoint does not reliably resolve HEAD to the default branch.
var DefaultBranchCandidates = []string{"master", "main", scm.HeadBranch}

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
		log:        logFactory("BitbucketFileResolver"),
	}
}

func (r *FileResolver) Name() models.SystemName {
	return models.BitbucketSystem
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
		Provider:         models.BitbucketSystem,
		ServerOrigin:     origin,
		SupportedSchemes: SupportedSchemes,
		OAuth:            r.oauth,
	}
	fetch := func(ctx context.Context, location scm.FileLocation) scm.FetchResult {
		return scm.FetchLocation(ctx, r.fetcher, policy, location, authorization)
	}
	if !ok {
		if filePath != "" {
			return scm.FetchSingle(ctx, scm.FileLocation{Filename: filePath, ResolvedURL: fallbackLocation(repositoryURL, filePath)}, fetch)
		}
		var locations []scm.FileLocation
		for _, name := range r.candidates {
			locations = append(locations, scm.FileLocation{Filename: name, ResolvedURL: fallbackLocation(repositoryURL, name)})
		}
		return scm.DiscoverFirst(ctx, r.log.WithField("repository", repositoryURL), locations, fetch)
	}

	if filePath != "" {
		location := scm.FileLocation{Filename: filePath, ResolvedURL: r.locate(repo, filePath, authorization)}
		return scm.FetchSingle(ctx, location, fetch)
	}

	// Branch candidates only widen discovery. An explicit file is fetched once.
	names := []string(r.candidates)
	branches := []*Repository{repo}
	if repo.BranchDefaulted() {
		branches = branches[:0]
		for _, b := range DefaultBranchCandidates {
			branches = append(branches, repo.WithBranch(b))
		}
	}
	var locations []scm.FileLocation
	for _, branchRepo := range branches {
		for _, name := range names {
			location := scm.FileLocation{Filename: name, ResolvedURL: r.locate(branchRepo, name, authorization)}
			if repo.BranchDefaulted() {
				location.Branch = branchRepo.Branch()
			}
			locations = append(locations, location)
		}
	}
	return scm.DiscoverFirst(ctx, r.log.WithField("repository", repositoryURL), locations, fetch)
}

// locate picks the API endpoint when a credential is being forwarded, since the raw
// endpoint on bitbucket.org ignores bearer tokens.
func (r *FileResolver) locate(repo *Repository, filename string, authorization string) string {
	if authorization != "" {
		return repo.APIFileLocation(filename)
	}
	return repo.RawFileLocation(filename)
}

func fallbackLocation(repositoryURL string, filePath string) string {
	return scm.JoinPath(scm.StripGitSuffix(repositoryURL)+"/raw/"+scm.HeadBranch, scm.EscapePath(filePath))
}
