package documents

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/devboard/devboard/common/models"
)

type FactoryDocument struct {
	Version string                 `json:"v"`
	Name    string                 `json:"name,omitempty"`
	Source  string                 `json:"source,omitempty"`
	Devfile map[string]interface{} `json:"devfile"`
	ScmInfo *ScmInfoDocument       `json:"scm_info,omitempty"`
	Links   []*LinkDocument        `json:"links"`
}

type ScmInfoDocument struct {
	CloneURL     string `json:"clone_url"`
	ProviderName string `json:"scm_provider"`
	Branch       string `json:"branch,omitempty"`
}

type LinkDocument struct {
	Href     string `json:"href"`
	Rel      string `json:"rel"`
	Method   string `json:"method"`
	Produces string `json:"produces,omitempty"`
}

func MakeFactoryDocument(factory *models.Factory) *FactoryDocument {
	doc := &FactoryDocument{
		Version: factory.Version,
		Name:    factory.Name,
		Source:  factory.Source,
		Devfile: factory.Devfile,
		Links:   make([]*LinkDocument, 0, len(factory.Links)),
	}
	if doc.Devfile == nil {
		doc.Devfile = map[string]interface{}{}
	}
	if factory.ScmInfo != nil {
		doc.ScmInfo = &ScmInfoDocument{
			CloneURL:     factory.ScmInfo.CloneURL,
			ProviderName: factory.ScmInfo.ProviderName.String(),
			Branch:       factory.ScmInfo.Branch,
		}
	}
	for _, link := range factory.Links {
		if link == nil {
			continue
		}
		doc.Links = append(doc.Links, &LinkDocument{
			Href:     link.Href,
			Rel:      link.Rel,
			Method:   link.Method,
			Produces: link.Produces,
		})
	}
	return doc
}

// MakeFactoryParameters flattens a resolver request body, plus any query parameters, into
// factory parameters. Body values win over query values with the same name. Scalars are
// rendered as strings; nested values are ignored.
func MakeFactoryParameters(body map[string]interface{}, query url.Values) models.FactoryParameters {
	params := make(models.FactoryParameters)
	for name, values := range query {
		if len(values) > 0 {
			params[name] = values[0]
		}
	}
	for name, value := range body {
		switch v := value.(type) {
		case string:
			params[name] = v
		case bool:
			params[name] = strconv.FormatBool(v)
		case float64:
			params[name] = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
		default:
			if s, ok := value.(fmt.Stringer); ok {
				params[name] = s.String()
			}
		}
	}
	return params
}
