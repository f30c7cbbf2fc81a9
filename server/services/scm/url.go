package scm

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/devboard/devboard/common/gerror"
)

// HeadBranch is the branch used when a URL does not name one.
const HeadBranch = "HEAD"

// StripGitSuffix removes trailing slashes and a trailing ".git". Applying it twice
// gives the same result as applying it once.
func StripGitSuffix(s string) string {
	s = strings.TrimRight(s, "/")
	for strings.HasSuffix(s, ".git") {
		s = strings.TrimRight(strings.TrimSuffix(s, ".git"), "/")
	}
	return s
}

// NormalizeRepositoryURL turns scp-style and ssh:// clone URLs into the https URL of
// the same repository. http(s) URLs are returned unchanged.
func NormalizeRepositoryURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw, nil
	}
	endpoint, err := transport.NewEndpoint(raw)
	if err != nil {
		return "", gerror.NewErrValidationFailed("Invalid repository URL").EDetail("url", raw).Wrap(err)
	}
	switch endpoint.Protocol {
	case "ssh", "git":
	default:
		return "", gerror.NewErrValidationFailed(fmt.Sprintf("Unsupported repository URL protocol %q", endpoint.Protocol)).EDetail("url", raw)
	}
	host := endpoint.Host
	path := strings.TrimPrefix(endpoint.Path, "/")
	// Azure DevOps ssh URLs take the form ssh.dev.azure.com:v3/{org}/{project}/{repo}
	if host == "ssh.dev.azure.com" && strings.HasPrefix(path, "v3/") {
		parts := strings.Split(strings.TrimPrefix(path, "v3/"), "/")
		if len(parts) == 3 {
			return fmt.Sprintf("https://dev.azure.com/%s/%s/_git/%s", parts[0], parts[1], parts[2]), nil
		}
	}
	return "https://" + host + "/" + path, nil
}

// ParseURL normalizes raw and parses it as an absolute URL.
func ParseURL(raw string) (*url.URL, error) {
	normalized, err := NormalizeRepositoryURL(raw)
	if err != nil {
		return nil, err
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return nil, gerror.NewErrValidationFailed("Invalid URL").EDetail("url", raw).Wrap(err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, gerror.NewErrValidationFailed("URL must be absolute").EDetail("url", raw)
	}
	return u, nil
}

// Origin returns scheme://host[:port] of u.
func Origin(u *url.URL) string {
	return u.Scheme + "://" + u.Host
}

// PathSegments returns the non-empty segments of the URL path, with ".git" stripped
// from the end of the path.
func PathSegments(u *url.URL) []string {
	path := StripGitSuffix(u.Path)
	var segments []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}

// HostMatches returns true if host (without port) equals one of the hosts of origins,
// compared case-insensitively.
func HostMatches(u *url.URL, origins []string) bool {
	host := strings.ToLower(u.Hostname())
	for _, o := range origins {
		ou, err := url.Parse(o)
		if err != nil || ou.Host == "" {
			if strings.EqualFold(o, host) {
				return true
			}
			continue
		}
		if strings.ToLower(ou.Hostname()) == host {
			return true
		}
	}
	return false
}

// JoinPath appends filePath to base with exactly one separating slash.
func JoinPath(base string, filePath string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(filePath, "/")
}

// BaseName returns the last element of a slash separated path.
func BaseName(filePath string) string {
	filePath = strings.TrimRight(filePath, "/")
	if i := strings.LastIndex(filePath, "/"); i >= 0 {
		return filePath[i+1:]
	}
	return filePath
}

// EncodeURIComponent percent-encodes every byte except A-Z a-z 0-9 and -_.!~*'().
// Unlike url.QueryEscape, spaces become %20 and the listed marks are left alone.
func EncodeURIComponent(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if isURIComponentSafe(b) {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "%%%02X", b)
	}
	return sb.String()
}

func isURIComponentSafe(b byte) bool {
	switch {
	case 'a' <= b && b <= 'z', 'A' <= b && b <= 'Z', '0' <= b && b <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", b) >= 0
}

// EscapePath escapes each segment of a slash separated path, keeping the separators.
func EscapePath(p string) string {
	segments := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// ErrUnparseableRepository is returned by resolvers that accepted a URL by host but
// could not find a repository in its path.
func ErrUnparseableRepository(provider fmt.Stringer, repositoryURL string) error {
	return gerror.NewErrValidationFailed(fmt.Sprintf("Unable to find a %s repository in URL", provider)).EDetail("repository", repositoryURL)
}
