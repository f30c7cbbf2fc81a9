package scm

import (
	"context"

	"github.com/devboard/devboard/common/models"
)

// DefaultCandidateFilenames are the configuration filenames tried, in order, when a
// repository is resolved without an explicit file path.
var DefaultCandidateFilenames = CandidateFilenames{"devfile.yaml", ".devfile.yaml"}

// CandidateFilenames is an ordered, non-empty list of configuration filenames.
type CandidateFilenames []string

// RemoteRepository is a parsed repository URL for one provider. Values are never
// mutated after parsing.
type RemoteRepository interface {
	// ProviderName identifies which provider parsed the URL.
	ProviderName() models.SystemName
	// ServerOrigin is the scheme://host[:port] of the SCM server.
	ServerOrigin() string
	// Branch is the branch named in the URL, or "HEAD" when none was given.
	Branch() string
	// CloneURL is the repository URL without any branch or file path.
	CloneURL() string
	// CandidateFilenames returns the filenames the repository was parsed with.
	CandidateFilenames() CandidateFilenames
	// RawFileLocation renders the provider URL that serves the raw content of filename.
	RawFileLocation(filename string) string
	// DevfileFileLocations maps CandidateFilenames through RawFileLocation.
	DevfileFileLocations() []FileLocation
}

// FileLocation is one place a file may be fetched from.
type FileLocation struct {
	Filename    string
	ResolvedURL string
	// Branch is only set when the location was generated by trying alternative branches.
	Branch string
}

func (l FileLocation) String() string {
	if l.Branch != "" {
		return l.Filename + "@" + l.Branch
	}
	return l.Filename
}

// FileLocations maps the candidate filenames of repo through its RawFileLocation.
func FileLocations(repo RemoteRepository) []FileLocation {
	names := repo.CandidateFilenames()
	locations := make([]FileLocation, 0, len(names))
	for _, name := range names {
		locations = append(locations, FileLocation{Filename: name, ResolvedURL: repo.RawFileLocation(name)})
	}
	return locations
}

// FileContent is the content of a file fetched from an SCM.
type FileContent struct {
	Location FileLocation
	Content  []byte
}

// FileResolver fetches files from one kind of SCM.
type FileResolver interface {
	// Name returns the provider the resolver serves.
	Name() models.SystemName
	// Accept returns true if the resolver can serve the repository URL.
	Accept(repositoryURL string) bool
	// FileContent fetches filePath from the repository. If filePath is empty each candidate
	// configuration filename is tried in turn and the first one found is returned.
	// authorization is forwarded verbatim as the Authorization header when not empty.
	FileContent(ctx context.Context, repositoryURL string, filePath string, authorization string) (*FileContent, error)
}

// User is the account a token belongs to, as reported by the provider.
type User struct {
	ID    string
	Login string
	Name  string
}

// APIClient talks to a provider's REST API.
type APIClient interface {
	// Name returns the provider the client serves.
	Name() models.SystemName
	// CurrentUser returns the user that owns token on the SCM server at serverOrigin.
	CurrentUser(ctx context.Context, serverOrigin string, token string) (*User, error)
}
