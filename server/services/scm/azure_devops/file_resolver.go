package azure_devops

import (
	"context"
	"net/url"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// SupportedSchemes includes Basic because Azure DevOps accepts PATs as Basic credentials.
var SupportedSchemes = []string{"bearer", "basic"}

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
		log:        logFactory("AzureDevOpsFileResolver"),
	}
}

func (r *FileResolver) Name() models.SystemName {
	return models.AzureDevOpsSystem
}

func (r *FileResolver) Accept(repositoryURL string) bool {
	u, err := scm.ParseURL(repositoryURL)
	return err == nil && r.config.accepts(u)
}

func (r *FileResolver) FileContent(ctx context.Context, repositoryURL string, filePath string, authorization string) (*scm.FileContent, error) {
	repo, ok := ParseURL(repositoryURL, r.candidates, r.config)
	if !ok {
		return nil, scm.ErrUnparseableRepository(models.AzureDevOpsSystem, repositoryURL)
	}
	policy := scm.AuthPolicy{
		Provider:         models.AzureDevOpsSystem,
		ServerOrigin:     repo.ServerOrigin(),
		SupportedSchemes: SupportedSchemes,
		OAuth:            r.oauth,
	}
	fetch := func(ctx context.Context, location scm.FileLocation) scm.FetchResult {
		return scm.FetchLocation(ctx, r.fetcher, policy, location, authorization)
	}
	if filePath != "" {
		return scm.FetchSingle(ctx, scm.FileLocation{Filename: filePath, ResolvedURL: repo.RawFileLocation(filePath)}, fetch)
	}
	return scm.DiscoverFirst(ctx, r.log.WithField("repository", url.QueryEscape(repositoryURL)), repo.DevfileFileLocations(), fetch)
}
