package scm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/devboard/devboard/common/gerror"
)

// GetAPIJSON GETs a provider REST endpoint and decodes a 200 response into out.
// 401 and 403 become the policy's AuthenticationRequired error; any other failure
// status is reported as CommunicationFailed.
func GetAPIJSON(ctx context.Context, fetcher *Fetcher, policy AuthPolicy, url string, header http.Header, out interface{}) error {
	if header == nil {
		header = http.Header{}
	}
	header.Set("Accept", "application/json")
	resp, err := fetcher.GetWithHeader(ctx, url, header)
	if err != nil {
		return gerror.NewErrCommunicationFailed(url, 0, "", err)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return policy.AuthenticationRequired()
	case resp.StatusCode != http.StatusOK:
		return gerror.NewErrCommunicationFailed(url, resp.StatusCode, resp.BodyExcerpt(), nil)
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", url, err)
	}
	return nil
}

// BearerHeader returns a header set carrying token as a bearer credential.
func BearerHeader(token string) http.Header {
	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	return header
}
