package factory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
)

// ResolverPath is the path of the endpoint that resolves factories.
const ResolverPath = "/api/factory/resolver"

// RefreshMode selects how RefreshToken obtains tokens.
type RefreshMode string

const (
	// RefreshModeForce always obtains a new token.
	RefreshModeForce RefreshMode = "force"
	// RefreshModeLazy only obtains a token when none is held.
	RefreshModeLazy RefreshMode = "lazy"
)

type ServiceConfig struct {
	// PublicURL is the externally visible base URL of this server.
	PublicURL   string
	RefreshMode RefreshMode
	Providers   providers.Config
}

type FactoryService struct {
	config     ServiceConfig
	tokens     services.PersonalAccessTokenManager
	rejections services.AuthorisationRequestManager
	resolvers  []Resolver
	mutex      sync.RWMutex
	logger.Log
}

func NewFactoryService(
	config ServiceConfig,
	tokens services.PersonalAccessTokenManager,
	rejections services.AuthorisationRequestManager,
	logFactory logger.LogFactory,
	resolvers ...Resolver) *FactoryService {

	s := &FactoryService{
		config:     config,
		tokens:     tokens,
		rejections: rejections,
		Log:        logFactory("FactoryService"),
	}
	for _, r := range resolvers {
		s.RegisterResolver(r)
	}
	return s
}

// RegisterResolver adds a resolver. Resolvers of equal priority are asked in the order
// they were registered.
func (s *FactoryService) RegisterResolver(resolver Resolver) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.resolvers = append(s.resolvers, resolver)
	sort.SliceStable(s.resolvers, func(i, j int) bool {
		return s.resolvers[i].Priority() > s.resolvers[j].Priority()
	})
}

// ResolveFactory turns the parameters into a factory using the first accepting resolver.
func (s *FactoryService) ResolveFactory(ctx context.Context, identity models.Identity, authorization string, params models.FactoryParameters) (*models.Factory, error) {
	if len(params) == 0 {
		return nil, gerror.NewErrValidationFailed("Factory parameters must not be empty")
	}
	resolver := s.resolverFor(params)
	if resolver == nil {
		return nil, s.noMatchingResolver(params)
	}
	s.WithFields(logger.Fields{"resolver": resolver.Name(), "url": params.URL()}).Debug("Resolving factory")
	factory, err := resolver.CreateFactory(ctx, &Request{
		Identity:      identity,
		Authorization: authorization,
		Parameters:    params,
	})
	if err != nil {
		return nil, err
	}
	if params.Validate() {
		if err := s.ValidateFactory(factory); err != nil {
			return nil, err
		}
	}
	s.injectLinks(factory)
	return factory, nil
}

func (s *FactoryService) resolverFor(params models.FactoryParameters) Resolver {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, r := range s.resolvers {
		ok, err := r.Accept(params)
		if err != nil {
			s.Warnf("Ignoring resolver %q that failed to check parameters: %v", r.Name(), err)
			continue
		}
		if ok {
			return r
		}
	}
	return nil
}

func (s *FactoryService) noMatchingResolver(params models.FactoryParameters) error {
	rawURL := params.URL()
	if rawURL == "" {
		return gerror.NewErrNoMatchingResolver("Cannot build factory with any of the provided parameters. Please check parameters correctness, and resend query.")
	}
	candidates := s.config.Providers.CandidateFilenames
	if len(candidates) == 0 {
		candidates = scm.DefaultCandidateFilenames
	}
	return gerror.NewErrNoMatchingResolver(fmt.Sprintf(
		"Cannot build factory with any of the provided parameters. The URL must either link directly to a configuration file (%s) or to a repository on a supported SCM provider (GitHub, GitLab, Bitbucket, Azure DevOps).",
		strings.Join(candidates, ", "))).EDetail("url", rawURL)
}

// ValidateFactory checks the factory carries the fields a client needs.
func (s *FactoryService) ValidateFactory(factory *models.Factory) error {
	if err := factory.Validate(); err != nil {
		return gerror.NewErrValidationFailed("Invalid factory").Wrap(err)
	}
	return nil
}

// injectLinks prepends a self link unless the resolver already supplied one.
func (s *FactoryService) injectLinks(factory *models.Factory) {
	if factory.HasLink(models.SelfLinkRel) {
		return
	}
	self := &models.Link{
		Href:     strings.TrimRight(s.config.PublicURL, "/") + ResolverPath,
		Rel:      models.SelfLinkRel,
		Method:   "POST",
		Produces: "application/json",
	}
	factory.Links = append([]*models.Link{self}, factory.Links...)
}

// RefreshToken makes sure a token is held for the SCM server hosting repositoryURL. Servers
// the caller declined to authorise are skipped without error.
func (s *FactoryService) RefreshToken(ctx context.Context, identity models.Identity, repositoryURL string) error {
	if s.tokens == nil || s.rejections == nil {
		return gerror.NewErrValidationFailed("Token refresh is not available")
	}
	repo, err := s.parseRepository(repositoryURL)
	if err != nil {
		return err
	}
	origin := repo.ServerOrigin()
	rejected, err := s.rejections.IsStored(ctx, identity, origin)
	if err != nil {
		return errors.Wrap(err, "error checking authorisation rejections")
	}
	if rejected {
		s.WithField("scm_server", origin).Debug("Skipping token refresh; authorisation was declined")
		return nil
	}
	if s.config.RefreshMode == RefreshModeForce {
		_, err = s.tokens.ForceRefresh(ctx, identity, repo.ProviderName(), origin)
	} else {
		_, err = s.tokens.GetAndStore(ctx, identity, repo.ProviderName(), origin)
	}
	return err
}

// RejectAuthorisation records that the caller declined to authorise access to the SCM server
// hosting repositoryURL.
func (s *FactoryService) RejectAuthorisation(ctx context.Context, identity models.Identity, repositoryURL string) error {
	if s.rejections == nil {
		return gerror.NewErrValidationFailed("Authorisation tracking is not available")
	}
	repo, err := s.parseRepository(repositoryURL)
	if err != nil {
		return err
	}
	return s.rejections.Store(ctx, identity, repo.ProviderName(), repo.ServerOrigin())
}

// ClearRejection forgets a previously declined authorisation so the caller is asked again.
func (s *FactoryService) ClearRejection(ctx context.Context, identity models.Identity, repositoryURL string) error {
	if s.rejections == nil {
		return gerror.NewErrValidationFailed("Authorisation tracking is not available")
	}
	repo, err := s.parseRepository(repositoryURL)
	if err != nil {
		return err
	}
	return s.rejections.Remove(ctx, identity, repo.ServerOrigin())
}

func (s *FactoryService) parseRepository(repositoryURL string) (scm.RemoteRepository, error) {
	if strings.TrimSpace(repositoryURL) == "" {
		return nil, gerror.NewErrValidationFailed("Missing repository URL")
	}
	repo, ok := providers.ParseRepositoryURL(repositoryURL, s.config.Providers)
	if !ok {
		return nil, gerror.NewErrValidationFailed("Unsupported repository URL").EDetail("url", repositoryURL)
	}
	return repo, nil
}
