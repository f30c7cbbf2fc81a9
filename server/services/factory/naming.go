package factory

import (
	"net/url"
	"strings"

	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/services/scm"
)

// ProviderNameForURL derives the provider name reported in scm_info from the URL's host.
func ProviderNameForURL(rawURL string) models.SystemName {
	if u, err := scm.ParseURL(rawURL); err == nil {
		return models.SystemNameForURL(u.Host)
	}
	return models.SystemNameForURL(rawURL)
}

// RepositoryNameAndBranch derives a display name and an optional branch from the path
// of a repository or file URL. A "tree" or "blob" segment marks the segment after it
// as the branch and the segment before it as the repository name.
func RepositoryNameAndBranch(rawURL string) (name string, branch string) {
	u, err := scm.ParseURL(rawURL)
	if err != nil {
		return "", ""
	}
	segments := scm.PathSegments(u)
	for i, s := range segments {
		if (s == "tree" || s == "blob") && i > 0 && i+1 < len(segments) {
			name = segments[i-1]
			if name == "-" && i > 1 {
				name = segments[i-2]
			}
			return scm.StripGitSuffix(name), segments[i+1]
		}
	}
	if len(segments) == 0 {
		return u.Hostname(), ""
	}
	return scm.StripGitSuffix(segments[len(segments)-1]), ""
}

// hasCandidateSuffix returns true if the path of rawURL, ignoring query and fragment,
// ends with one of the candidate filenames. Case is ignored.
func hasCandidateSuffix(rawURL string, candidates scm.CandidateFilenames) (string, bool, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false, err
	}
	path := strings.ToLower(strings.TrimRight(u.Path, "/"))
	for _, c := range candidates {
		lc := strings.ToLower(c)
		if path == lc || path == "/"+lc || strings.HasSuffix(path, "/"+lc) {
			return c, true, nil
		}
	}
	return "", false, nil
}

// stripQuery removes the query and fragment from rawURL.
func stripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
