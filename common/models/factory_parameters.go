package models

import "strings"

// FactoryURLParameter is the parameter holding the URL a factory is resolved from.
const FactoryURLParameter = "url"

// FactoryValidateParameter requests validation of the resolved factory.
const FactoryValidateParameter = "validate"

// FactoryParameters are the parameters a factory is resolved from.
type FactoryParameters map[string]string

// URL returns the trimmed url parameter.
func (p FactoryParameters) URL() string {
	return strings.TrimSpace(p[FactoryURLParameter])
}

// Validate returns true if the caller asked for the factory to be validated.
func (p FactoryParameters) Validate() bool {
	v := strings.ToLower(strings.TrimSpace(p[FactoryValidateParameter]))
	return v == "true" || v == "1"
}

// ResolverPriority orders factory resolvers; higher priorities are asked first.
type ResolverPriority int

const (
	ResolverPriorityLowest  ResolverPriority = 0
	ResolverPriorityDefault ResolverPriority = 5
	ResolverPriorityHighest ResolverPriority = 10
)
