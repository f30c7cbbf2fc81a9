package github

import (
	"fmt"
	"strings"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

const (
	publicOrigin   = "https://github.com"
	rawContentHost = "https://raw.githubusercontent.com"
)

// Config lists GitHub Enterprise servers in addition to github.com.
type Config struct {
	EnterpriseOrigins []string
}

func (c Config) origins() []string {
	return append([]string{publicOrigin, "https://www.github.com"}, c.EnterpriseOrigins...)
}

// Repository is a parsed GitHub repository URL.
type Repository struct {
	origin     string
	owner      string
	name       string
	branch     string
	candidates scm.CandidateFilenames
}

// ParseURL parses {origin}/{owner}/{repo}[/tree|blob/{branch}[/...]]. It returns false if
// the URL is not on a GitHub host or does not name a repository.
func ParseURL(rawURL string, candidates scm.CandidateFilenames, config Config) (*Repository, bool) {
	u, err := scm.ParseURL(rawURL)
	if err != nil || !scm.HostMatches(u, config.origins()) {
		return nil, false
	}
	segments := scm.PathSegments(u)
	if len(segments) < 2 {
		return nil, false
	}
	origin := scm.Origin(u)
	if strings.EqualFold(u.Hostname(), "www.github.com") {
		origin = publicOrigin
	}
	branch := scm.HeadBranch
	if len(segments) >= 4 && (segments[2] == "tree" || segments[2] == "blob") {
		branch = segments[3]
	}
	return &Repository{
		origin:     origin,
		owner:      segments[0],
		name:       scm.StripGitSuffix(segments[1]),
		branch:     branch,
		candidates: candidates,
	}, true
}

func (r *Repository) ProviderName() models.SystemName {
	return models.GitHubSystem
}

func (r *Repository) ServerOrigin() string {
	return r.origin
}

func (r *Repository) Owner() string {
	return r.owner
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
	return fmt.Sprintf("%s/%s/%s", r.origin, r.owner, r.name)
}

// IsEnterprise returns true for repositories not hosted on github.com.
func (r *Repository) IsEnterprise() bool {
	return r.origin != publicOrigin
}

func (r *Repository) RawFileLocation(filename string) string {
	if r.IsEnterprise() {
		return fmt.Sprintf("%s/raw/%s/%s/%s/%s", r.origin, r.owner, r.name, r.branch, scm.EscapePath(filename))
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", rawContentHost, r.owner, r.name, r.branch, scm.EscapePath(filename))
}

func (r *Repository) DevfileFileLocations() []scm.FileLocation {
	return scm.FileLocations(r)
}
