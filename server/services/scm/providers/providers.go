// Package providers wires the per-provider SCM packages together in their fixed
// precedence order.
package providers

import (
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/azure_devops"
	"github.com/devboard/devboard/server/services/scm/bitbucket"
	"github.com/devboard/devboard/server/services/scm/generic"
	"github.com/devboard/devboard/server/services/scm/github"
	"github.com/devboard/devboard/server/services/scm/gitlab"
)

// Config carries the self-hosted server origins of every provider.
type Config struct {
	CandidateFilenames scm.CandidateFilenames
	GitHub             github.Config
	GitLab             gitlab.Config
	Bitbucket          bitbucket.Config
	AzureDevOps        azure_devops.Config
}

func (c Config) candidates() scm.CandidateFilenames {
	if len(c.CandidateFilenames) == 0 {
		return scm.DefaultCandidateFilenames
	}
	return c.CandidateFilenames
}

// ParseRepositoryURL tries each provider parser in order (GitHub, GitLab, Bitbucket, then
// Azure DevOps) and returns the first descriptor produced. ok is false if no provider
// recognised the URL, in which case callers fall back to the generic resolver.
func ParseRepositoryURL(rawURL string, config Config) (scm.RemoteRepository, bool) {
	candidates := config.candidates()
	if repo, ok := github.ParseURL(rawURL, candidates, config.GitHub); ok {
		return repo, true
	}
	if repo, ok := gitlab.ParseURL(rawURL, candidates, config.GitLab); ok {
		return repo, true
	}
	if repo, ok := bitbucket.ParseURL(rawURL, candidates, config.Bitbucket); ok {
		return repo, true
	}
	if repo, ok := azure_devops.ParseURL(rawURL, candidates, config.AzureDevOps); ok {
		return repo, true
	}
	return nil, false
}

// NewFileResolverChain returns the resolver chain with the generic resolver last.
func NewFileResolverChain(config Config, fetcher *scm.Fetcher, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *scm.FileResolverChain {
	candidates := config.candidates()
	return scm.NewFileResolverChain(
		github.NewFileResolver(config.GitHub, candidates, fetcher, oauth, logFactory),
		gitlab.NewFileResolver(config.GitLab, candidates, fetcher, oauth, logFactory),
		bitbucket.NewFileResolver(config.Bitbucket, candidates, fetcher, oauth, logFactory),
		azure_devops.NewFileResolver(config.AzureDevOps, candidates, fetcher, oauth, logFactory),
		generic.NewFileResolver(candidates, fetcher, logFactory),
	)
}

// NewAPIClientRegistry returns a registry holding an API client for every provider.
func NewAPIClientRegistry(fetcher *scm.Fetcher, oauth *scm.OAuthLinker, logFactory logger.LogFactory) *scm.APIClientRegistry {
	return scm.NewAPIClientRegistry(
		github.NewAPIClient(fetcher.HTTPClient(), oauth, logFactory),
		gitlab.NewAPIClient(fetcher, oauth, logFactory),
		bitbucket.NewAPIClient(fetcher, oauth, logFactory),
		azure_devops.NewAPIClient(fetcher, oauth, logFactory),
	)
}

// IsKnownProvider returns true if a provider parser recognises the URL.
func IsKnownProvider(rawURL string, config Config) bool {
	_, ok := ParseRepositoryURL(rawURL, config)
	return ok
}

// SupportedSchemes returns the Authorization schemes the provider accepts. Unrecognised
// providers get the generic list.
func SupportedSchemes(provider models.SystemName) []string {
	switch provider {
	case models.GitHubSystem:
		return github.SupportedSchemes
	case models.GitLabSystem:
		return gitlab.SupportedSchemes
	case models.BitbucketSystem:
		return bitbucket.SupportedSchemes
	case models.AzureDevOpsSystem:
		return azure_devops.SupportedSchemes
	}
	return generic.SupportedSchemes
}
