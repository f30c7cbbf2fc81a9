package factory

import (
	"context"
	"fmt"
	"strings"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/providers"
)

// DirectLinkResolver creates factories from URLs that point straight at a configuration file.
type DirectLinkResolver struct {
	candidates scm.CandidateFilenames
	fetcher    *scm.Fetcher
	oauth      *scm.OAuthLinker
	forwarder  services.AuthorisationForwarder
	log        logger.Log
}

func NewDirectLinkResolver(
	candidates scm.CandidateFilenames,
	fetcher *scm.Fetcher,
	oauth *scm.OAuthLinker,
	forwarder services.AuthorisationForwarder,
	logFactory logger.LogFactory,
) *DirectLinkResolver {
	if len(candidates) == 0 {
		candidates = scm.DefaultCandidateFilenames
	}
	return &DirectLinkResolver{
		candidates: candidates,
		fetcher:    fetcher,
		oauth:      oauth,
		forwarder:  forwarder,
		log:        logFactory("DirectLinkResolver"),
	}
}

func (r *DirectLinkResolver) Name() string {
	return "direct-link"
}

func (r *DirectLinkResolver) Priority() models.ResolverPriority {
	return models.ResolverPriorityHighest
}

// Accept returns true if the url parameter ends with a candidate filename.
func (r *DirectLinkResolver) Accept(params models.FactoryParameters) (bool, error) {
	rawURL := params.URL()
	if rawURL == "" {
		return false, nil
	}
	_, ok, err := hasCandidateSuffix(rawURL, r.candidates)
	return ok, err
}

// CreateFactory fetches the linked file exactly once and parses it. The document must
// carry a schemaVersion or apiVersion field.
func (r *DirectLinkResolver) CreateFactory(ctx context.Context, request *Request) (*models.Factory, error) {
	rawURL := request.Parameters.URL()
	u, err := scm.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	provider := ProviderNameForURL(rawURL)
	policy := scm.AuthPolicy{
		Provider:         provider,
		ServerOrigin:     scm.Origin(u),
		SupportedSchemes: providers.SupportedSchemes(provider),
		OAuth:            r.oauth,
		PlainNotFound:    provider == models.GenericGitSystem,
	}
	authorization := r.forwarder.Header(ctx, request.Identity, rawURL, request.Authorization)
	filename := scm.BaseName(stripQuery(rawURL))
	location := scm.FileLocation{Filename: filename, ResolvedURL: rawURL}
	content, err := scm.FetchSingle(ctx, location, func(ctx context.Context, location scm.FileLocation) scm.FetchResult {
		return scm.FetchLocation(ctx, r.fetcher, policy, location, authorization)
	})
	if err != nil {
		return nil, err
	}
	doc, err := ParseConfigDocument(filename, content.Content)
	if err != nil {
		return nil, err
	}
	if _, ok := models.DevfileVersion(doc); !ok {
		return nil, gerror.NewErrValidationFailed(fmt.Sprintf("Configuration document %s must contain one of the fields %s",
			filename, strings.Join(models.DevfileVersionFields, ", "))).EDetail("url", rawURL)
	}
	name, branch := RepositoryNameAndBranch(rawURL)
	if metadataName := devfileName(doc); metadataName != "" {
		name = metadataName
	}
	r.log.WithField("url", rawURL).Debug("Created factory from direct link")
	return &models.Factory{
		Version: models.FactoryVersion,
		Name:    name,
		Source:  filename,
		Devfile: doc,
		ScmInfo: &models.ScmInfo{
			CloneURL:     cloneURLForFile(rawURL, filename),
			ProviderName: provider,
			Branch:       branch,
		},
		Links: []*models.Link{},
	}, nil
}

// devfileName returns metadata.name from a devfile, if present.
func devfileName(doc map[string]interface{}) string {
	metadata, ok := doc["metadata"].(map[string]interface{})
	if !ok {
		return ""
	}
	name, _ := metadata["name"].(string)
	return name
}

// cloneURLForFile returns the repository URL a file URL was taken from. Provider page
// URLs are cut at their tree or blob segment, anything else at the file's directory.
func cloneURLForFile(rawURL string, filename string) string {
	base := stripQuery(rawURL)
	for _, marker := range []string{"/-/blob/", "/-/tree/", "/blob/", "/tree/"} {
		if i := strings.Index(base, marker); i >= 0 {
			return base[:i]
		}
	}
	return strings.TrimSuffix(strings.TrimSuffix(base, filename), "/")
}
