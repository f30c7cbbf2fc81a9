package gitlab

import (
	"fmt"
	"strings"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

const publicOrigin = "https://gitlab.com"

// branchMarker separates the project path from the branch in GitLab web URLs.
const branchMarker = "/-/tree/"

// Config lists self-hosted GitLab servers in addition to gitlab.com.
type Config struct {
	ServerOrigins []string
}

func (c Config) origins() []string {
	return append([]string{publicOrigin}, c.ServerOrigins...)
}

// Repository is a parsed GitLab project URL. Projects may be nested under any
// number of groups.
type Repository struct {
	origin     string
	subGroups  string
	project    string
	branch     string
	candidates scm.CandidateFilenames
}

// ParseURL parses {origin}/{group}[/{subgroup}...]/{project}[/-/tree/{branch}].
func ParseURL(rawURL string, candidates scm.CandidateFilenames, config Config) (*Repository, bool) {
	u, err := scm.ParseURL(rawURL)
	if err != nil || !scm.HostMatches(u, config.origins()) {
		return nil, false
	}
	path := u.Path
	branch := scm.HeadBranch
	if i := strings.Index(path, branchMarker); i >= 0 {
		if b := strings.Trim(path[i+len(branchMarker):], "/"); b != "" {
			branch = b
		}
		path = path[:i]
	}
	subGroups := strings.Trim(scm.StripGitSuffix(path), "/")
	if !strings.Contains(subGroups, "/") {
		return nil, false
	}
	return &Repository{
		origin:     scm.Origin(u),
		subGroups:  subGroups,
		project:    scm.BaseName(subGroups),
		branch:     branch,
		candidates: candidates,
	}, true
}

func (r *Repository) ProviderName() models.SystemName {
	return models.GitLabSystem
}

func (r *Repository) ServerOrigin() string {
	return r.origin
}

// SubGroups is the full project path, e.g. "group/subgroup/project".
func (r *Repository) SubGroups() string {
	return r.subGroups
}

func (r *Repository) Project() string {
	return r.project
}

func (r *Repository) Branch() string {
	return r.branch
}

func (r *Repository) CandidateFilenames() scm.CandidateFilenames {
	return r.candidates
}

func (r *Repository) CloneURL() string {
	return fmt.Sprintf("%s/%s", r.origin, r.subGroups)
}

// RawFileLocation uses the repository files API, which unlike the web raw endpoint
// honours OAuth bearer tokens.
func (r *Repository) RawFileLocation(filename string) string {
	return fmt.Sprintf("%s/api/v4/projects/%s/repository/files/%s/raw?ref=%s",
		r.origin,
		scm.EncodeURIComponent(r.subGroups),
		scm.EncodeURIComponent(strings.TrimLeft(filename, "/")),
		scm.EncodeURIComponent(r.branch))
}

func (r *Repository) DevfileFileLocations() []scm.FileLocation {
	return scm.FileLocations(r)
}
