package azure_devops

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

const (
	publicOrigin = "https://dev.azure.com"
	apiVersion   = "7.0"
)

// Config lists Azure DevOps Server instances in addition to dev.azure.com.
type Config struct {
	ServerOrigins []string
}

func (c Config) accepts(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "dev.azure.com" || strings.HasSuffix(host, ".visualstudio.com") || scm.HostMatches(u, c.ServerOrigins)
}

// Repository is a parsed Azure DevOps Git repository URL.
type Repository struct {
	origin       string
	organization string
	project      string
	name         string
	branch       string
	candidates   scm.CandidateFilenames
}

// ParseURL parses {origin}/{org}/{project}/_git/{repo}[?version=GB{branch}] and the legacy
// https://{org}.visualstudio.com/{project}/_git/{repo} form.
func ParseURL(rawURL string, candidates scm.CandidateFilenames, config Config) (*Repository, bool) {
	u, err := scm.ParseURL(rawURL)
	if err != nil || !config.accepts(u) {
		return nil, false
	}
	segments := scm.PathSegments(u)
	host := strings.ToLower(u.Hostname())
	var org string
	if strings.HasSuffix(host, ".visualstudio.com") {
		org = strings.TrimSuffix(host, ".visualstudio.com")
	} else {
		if len(segments) == 0 {
			return nil, false
		}
		org, segments = segments[0], segments[1:]
	}
	if len(segments) < 3 || segments[1] != "_git" {
		return nil, false
	}
	branch := scm.HeadBranch
	if v := u.Query().Get("version"); strings.HasPrefix(v, "GB") && len(v) > 2 {
		branch = v[2:]
	}
	origin := publicOrigin
	if scm.HostMatches(u, config.ServerOrigins) {
		origin = scm.Origin(u)
	}
	return &Repository{
		origin:       origin,
		organization: org,
		project:      segments[0],
		name:         scm.StripGitSuffix(segments[2]),
		branch:       branch,
		candidates:   candidates,
	}, true
}

func (r *Repository) ProviderName() models.SystemName {
	return models.AzureDevOpsSystem
}

func (r *Repository) ServerOrigin() string {
	return r.origin
}

func (r *Repository) Organization() string {
	return r.organization
}

func (r *Repository) Project() string {
	return r.project
}

func (r *Repository) Name() string {
	return r.name
}

func (r *Repository) Branch() string {
	return r.branch
}

func (r *Repository) CandidateFilenames() scm.CandidateFilenames {
	return r.candidates
}

func (r *Repository) CloneURL() string {
	return fmt.Sprintf("%s/%s/%s/_git/%s", r.origin, r.organization, r.project, r.name)
}

// RawFileLocation renders the Git items API URL. When the URL named no branch the
// version descriptor is left out so the repository's default branch is served.
func (r *Repository) RawFileLocation(filename string) string {
	loc := fmt.Sprintf("%s/%s/%s/_apis/git/repositories/%s/items?path=/%s",
		r.origin, r.organization, r.project, r.name, scm.EscapePath(filename))
	if r.branch != scm.HeadBranch {
		loc += "&versionDescriptor.version=" + scm.EncodeURIComponent(r.branch)
	}
	return loc + "&api-version=" + apiVersion
}

func (r *Repository) DevfileFileLocations() []scm.FileLocation {
	return scm.FileLocations(r)
}
