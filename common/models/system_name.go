package models

import "strings"

// SystemName is the name of a source control provider, as reported to the dashboard in
// scm_info.scm_provider and in the oauth_provider attribute of authentication errors.
type SystemName string

func (s SystemName) String() string {
	return string(s)
}

const (
	GitHubSystem      SystemName = "github"
	GitLabSystem      SystemName = "gitlab"
	BitbucketSystem   SystemName = "bitbucket"
	AzureDevOpsSystem SystemName = "azure-devops"
	// GenericGitSystem is used for any host that is not a recognised provider.
	GenericGitSystem SystemName = "git"
)

// SystemNameForURL derives a provider name from a URL by hostname substring match.
// Providers are checked in a fixed order and anything unrecognised is GenericGitSystem.
func SystemNameForURL(url string) SystemName {
	lower := strings.ToLower(url)
	for _, name := range []SystemName{GitHubSystem, GitLabSystem, BitbucketSystem, AzureDevOpsSystem} {
		if strings.Contains(lower, string(name)) {
			return name
		}
	}
	// Azure DevOps also serves repositories from the legacy visualstudio.com domain
	if strings.Contains(lower, "dev.azure.com") || strings.Contains(lower, "visualstudio.com") {
		return AzureDevOpsSystem
	}
	return GenericGitSystem
}
