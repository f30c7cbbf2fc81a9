package bitbucket

import (
	"fmt"
	"strings"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

const (
	publicOrigin = "https://bitbucket.org"
	apiOrigin    = "https://api.bitbucket.org"
)

// Config lists Bitbucket Server instances in addition to bitbucket.org.
type Config struct {
	ServerOrigins []string
}

func (c Config) origins() []string {
	return append([]string{publicOrigin, "https://www.bitbucket.org"}, c.ServerOrigins...)
}

// Repository is a parsed Bitbucket repository URL.
type Repository struct {
	origin    string
	workspace string
	name      string
	branch    string
	// branchDefaulted is true when the URL did not name a branch.
	branchDefaulted bool
	// server is true for Bitbucket Server's /projects/{key}/repos/{repo} layout.
	server     bool
	candidates scm.CandidateFilenames
}

// ParseURL parses bitbucket.org URLs of the form {workspace}/{repo}[/src/{branch}[/...]]
// and Bitbucket Server URLs of the form projects/{key}/repos/{repo}[/browse][?at={ref}].
func ParseURL(rawURL string, candidates scm.CandidateFilenames, config Config) (*Repository, bool) {
	u, err := scm.ParseURL(rawURL)
	if err != nil || !scm.HostMatches(u, config.origins()) {
		return nil, false
	}
	segments := scm.PathSegments(u)
	origin := scm.Origin(u)
	if strings.EqualFold(u.Hostname(), "www.bitbucket.org") {
		origin = publicOrigin
	}
	repo := &Repository{origin: origin, branch: scm.HeadBranch, branchDefaulted: true, candidates: candidates}

	if len(segments) >= 4 && segments[0] == "projects" && segments[2] == "repos" {
		repo.server = true
		repo.workspace = segments[1]
		repo.name = scm.StripGitSuffix(segments[3])
		if at := strings.TrimPrefix(u.Query().Get("at"), "refs/heads/"); at != "" {
			repo.branch = at
			repo.branchDefaulted = false
		}
		return repo, true
	}
	// Bitbucket Server clone URLs: {origin}/scm/{key}/{repo}.git
	if len(segments) == 3 && segments[0] == "scm" {
		repo.server = true
		repo.workspace = segments[1]
		repo.name = scm.StripGitSuffix(segments[2])
		return repo, true
	}
	if len(segments) < 2 {
		return nil, false
	}
	repo.workspace = segments[0]
	repo.name = scm.StripGitSuffix(segments[1])
	if len(segments) >= 4 && segments[2] == "src" {
		repo.branch = segments[3]
		repo.branchDefaulted = false
	}
	return repo, true
}

func (r *Repository) ProviderName() models.SystemName {
	return models.BitbucketSystem
}

func (r *Repository) ServerOrigin() string {
	return r.origin
}

func (r *Repository) Workspace() string {
	return r.workspace
}

func (r *Repository) Name() string {
	return r.name
}

func (r *Repository) Branch() string {
	return r.branch
}

// BranchDefaulted returns true if the URL named no branch and Branch is HEAD.
func (r *Repository) BranchDefaulted() bool {
	return r.branchDefaulted
}

func (r *Repository) CandidateFilenames() scm.CandidateFilenames {
	return r.candidates
}

func (r *Repository) CloneURL() string {
	if r.server {
		return fmt.Sprintf("%s/scm/%s/%s.git", r.origin, strings.ToLower(r.workspace), r.name)
	}
	return fmt.Sprintf("%s/%s/%s", r.origin, r.workspace, r.name)
}

// WithBranch returns a copy of the repository pointing at branch.
func (r *Repository) WithBranch(branch string) *Repository {
	c := *r
	c.branch = branch
	c.branchDefaulted = false
	return &c
}

func (r *Repository) RawFileLocation(filename string) string {
	if r.server {
		return fmt.Sprintf("%s/rest/api/1.0/projects/%s/repos/%s/raw/%s?at=%s",
			r.origin, r.workspace, r.name, scm.EscapePath(filename), scm.EncodeURIComponent(r.branch))
	}
	return fmt.Sprintf("%s/%s/%s/raw/%s/%s", r.origin, r.workspace, r.name, r.branch, scm.EscapePath(filename))
}

// APIFileLocation renders the bitbucket.org REST API URL for filename. Unlike the raw
// endpoint it accepts OAuth bearer tokens. Bitbucket Server has no equivalent, so the
// raw location is returned for server repositories.
func (r *Repository) APIFileLocation(filename string) string {
	if r.server || r.origin != publicOrigin {
		return r.RawFileLocation(filename)
	}
	return fmt.Sprintf("%s/2.0/repositories/%s/%s/src/%s/%s", apiOrigin, r.workspace, r.name, r.branch, scm.EscapePath(filename))
}

func (r *Repository) DevfileFileLocations() []scm.FileLocation {
	return scm.FileLocations(r)
}
