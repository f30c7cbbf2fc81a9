package factory

import (
	"context"
	"net/url"
	"strings"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
)

// SCMResolvePath is the path of the endpoint that serves single files from a repository.
const SCMResolvePath = "/api/scm/resolve"

// SideFiles are the well known files a repository factory links to.
var SideFiles = []string{
	"devfile.yaml",
	".che/che-editor.yaml",
	".che/che-theia-plugins.yaml",
	".vscode/extensions.json",
}

// RepositoryLinkResolver creates factories from links to repositories on a recognised provider.
type RepositoryLinkResolver struct {
	config    providers.Config
	chain     *scm.FileResolverChain
	forwarder services.AuthorisationForwarder
	publicURL string
	log       logger.Log
}

// NewRepositoryLinkResolver creates a resolver. publicURL is the externally visible base URL
// of this server and prefixes the generated side-file links.
func NewRepositoryLinkResolver(
	config providers.Config,
	chain *scm.FileResolverChain,
	forwarder services.AuthorisationForwarder,
	publicURL string,
	logFactory logger.LogFactory,
) *RepositoryLinkResolver {
	if len(config.CandidateFilenames) == 0 {
		config.CandidateFilenames = scm.DefaultCandidateFilenames
	}
	return &RepositoryLinkResolver{
		config:    config,
		chain:     chain,
		forwarder: forwarder,
		publicURL: strings.TrimRight(publicURL, "/"),
		log:       logFactory("RepositoryLinkResolver"),
	}
}

func (r *RepositoryLinkResolver) Name() string {
	return "repository-link"
}

func (r *RepositoryLinkResolver) Priority() models.ResolverPriority {
	return models.ResolverPriorityDefault
}

// Accept returns true for URLs on a recognised provider that do not already end with a
// candidate filename.
func (r *RepositoryLinkResolver) Accept(params models.FactoryParameters) (bool, error) {
	rawURL := params.URL()
	if rawURL == "" {
		return false, nil
	}
	_, isFile, err := hasCandidateSuffix(rawURL, r.config.CandidateFilenames)
	if err != nil || isFile {
		return false, err
	}
	return providers.IsKnownProvider(rawURL, r.config), nil
}

// CreateFactory discovers the repository's configuration file. A repository without one
// still produces a factory, with an empty document.
func (r *RepositoryLinkResolver) CreateFactory(ctx context.Context, request *Request) (*models.Factory, error) {
	rawURL := request.Parameters.URL()
	repositoryURL := scm.StripGitSuffix(rawURL)
	repo, ok := providers.ParseRepositoryURL(repositoryURL, r.config)
	if !ok {
		return nil, gerror.NewErrValidationFailed("Unsupported repository URL").EDetail("url", rawURL)
	}
	resolver, err := r.chain.Get(repo.ProviderName())
	if err != nil {
		return nil, err
	}
	name, branch := RepositoryNameAndBranch(repositoryURL)
	if repo.Branch() != scm.HeadBranch {
		branch = repo.Branch()
	}
	factory := &models.Factory{
		Version: models.FactoryVersion,
		Name:    name,
		ScmInfo: &models.ScmInfo{
			CloneURL:     repo.CloneURL(),
			ProviderName: ProviderNameForURL(rawURL),
			Branch:       branch,
		},
		Links: r.sideFileLinks(rawURL),
	}

	authorization := r.forwarder.Header(ctx, request.Identity, repositoryURL, request.Authorization)
	content, err := resolver.FileContent(ctx, repositoryURL, "", authorization)
	if err != nil {
		if gerror.IsNoMatchingFile(err) {
			r.log.WithField("url", rawURL).Infof("No configuration file found, creating factory with an empty document: %v", err)
			factory.Source = models.FactorySourceRepository
			factory.Devfile = map[string]interface{}{}
			return factory, nil
		}
		return nil, err
	}
	doc, err := ParseConfigDocument(content.Location.Filename, content.Content)
	if err != nil {
		return nil, err
	}
	factory.Source = content.Location.Filename
	factory.Devfile = doc
	return factory, nil
}

// sideFileLinks returns a link to each well known file, served through the SCM resolve endpoint.
func (r *RepositoryLinkResolver) sideFileLinks(repositoryURL string) []*models.Link {
	links := make([]*models.Link, 0, len(SideFiles))
	for _, file := range SideFiles {
		links = append(links, &models.Link{
			Href:     r.publicURL + SCMResolvePath + "?repository=" + url.QueryEscape(repositoryURL) + "&file=" + url.QueryEscape(file),
			Rel:      scm.BaseName(file) + " content",
			Method:   "GET",
			Produces: "text/plain",
		})
	}
	return links
}
