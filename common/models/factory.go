package models

import "errors"

// FactoryVersion is the descriptor format version written into every Factory.
const FactoryVersion = "4.0"

// FactorySourceRepository is the source recorded when a repository had no
// recognised configuration file.
const FactorySourceRepository = "repo"

// Factory is a resolved project descriptor.
type Factory struct {
	Version string `json:"v"`
	Name    string `json:"name,omitempty"`
	// Source is the name of the configuration file the descriptor was built from.
	Source string `json:"source,omitempty"`
	// Devfile is the parsed configuration document. It is never interpreted by the server.
	Devfile map[string]interface{} `json:"devfile"`
	ScmInfo *ScmInfo               `json:"scm_info,omitempty"`
	Links   []*Link                `json:"links"`
}

type ScmInfo struct {
	CloneURL     string     `json:"clone_url"`
	ProviderName SystemName `json:"scm_provider"`
	Branch       string     `json:"branch,omitempty"`
}

const (
	SelfLinkRel = "self"
)

type Link struct {
	Href     string `json:"href"`
	Rel      string `json:"rel"`
	Method   string `json:"method"`
	Produces string `json:"produces,omitempty"`
}

// HasLink returns true if the factory already carries a link with the given rel.
func (m *Factory) HasLink(rel string) bool {
	for _, l := range m.Links {
		if l != nil && l.Rel == rel {
			return true
		}
	}
	return false
}

// Validate checks the factory carries a version marker.
func (m *Factory) Validate() error {
	if m.Version == "" {
		return errors.New("error factory version must be set")
	}
	if m.Devfile != nil {
		if _, ok := DevfileVersion(m.Devfile); !ok && len(m.Devfile) > 0 {
			return errors.New("error devfile must contain a schemaVersion or apiVersion field")
		}
	}
	return nil
}

// DevfileVersionFields are the top level fields any of which marks a document as a devfile.
var DevfileVersionFields = []string{"schemaVersion", "apiVersion"}

// DevfileVersion returns the first version marker found in the document.
func DevfileVersion(doc map[string]interface{}) (string, bool) {
	for _, field := range DevfileVersionFields {
		if v, ok := doc[field]; ok && v != nil {
			if s, ok := v.(string); ok && s != "" {
				return s, true
			}
		}
	}
	return "", false
}
