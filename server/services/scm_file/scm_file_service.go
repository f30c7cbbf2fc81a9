package scm_file

import (
	"context"
	"strings"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/scm"
)

// SCMFileService fetches single files from repositories on behalf of callers.
type SCMFileService struct {
	chain     *scm.FileResolverChain
	forwarder services.AuthorisationForwarder
	logger.Log
}

func NewSCMFileService(chain *scm.FileResolverChain, forwarder services.AuthorisationForwarder, logFactory logger.LogFactory) *SCMFileService {
	return &SCMFileService{
		chain:     chain,
		forwarder: forwarder,
		Log:       logFactory("SCMFileService"),
	}
}

// ResolveFile fetches filePath from the repository using the first resolver that accepts the URL.
func (s *SCMFileService) ResolveFile(ctx context.Context, identity models.Identity, authorization string, repositoryURL string, filePath string) (*scm.FileContent, error) {
	repositoryURL = strings.TrimSpace(repositoryURL)
	if repositoryURL == "" {
		return nil, gerror.NewErrValidationFailed("Repository URL must be provided")
	}
	resolver, err := s.chain.For(repositoryURL)
	if err != nil {
		return nil, err
	}
	repositoryURL = scm.StripGitSuffix(repositoryURL)
	header := s.forwarder.Header(ctx, identity, repositoryURL, authorization)
	s.WithFields(logger.Fields{"resolver": resolver.Name(), "repository": repositoryURL, "file": filePath}).Debug("Resolving file")
	return resolver.FileContent(ctx, repositoryURL, strings.TrimLeft(filePath, "/"), header)
}
