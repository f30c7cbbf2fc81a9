package scm

import (
	"context"

	"github.com/hashicorp/go-multierror"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
)

// FetchFunc fetches a single location and classifies the result.
type FetchFunc func(ctx context.Context, location FileLocation) FetchResult

// FetchLocation fetches location with fetcher and classifies the response with policy.
func FetchLocation(ctx context.Context, fetcher *Fetcher, policy AuthPolicy, location FileLocation, authorization string) FetchResult {
	resp, err := fetcher.Fetch(ctx, location.ResolvedURL, authorization)
	return policy.Classify(location, resp, err, authorization)
}

// DiscoverFirst tries each location in order, one request at a time, and returns the
// first one found. An authentication-required result stops the search immediately and
// its error is returned unchanged. If nothing is found a NoMatchingFile error listing
// every attempted location is returned.
func DiscoverFirst(ctx context.Context, log logger.Log, locations []FileLocation, fetch FetchFunc) (*FileContent, error) {
	var (
		failures  *multierror.Error
		attempted []string
	)
	for _, location := range locations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result := fetch(ctx, location)
		log.WithFields(logger.Fields{"url": location.ResolvedURL, "outcome": result.Outcome}).Debug("Tried candidate")
		switch result.Outcome {
		case OutcomeFound:
			return &FileContent{Location: location, Content: result.Content}, nil
		case OutcomeAuthenticationRequired:
			return nil, result.Err
		default:
			attempted = append(attempted, location.String())
			failures = multierror.Append(failures, result.Err)
		}
	}
	return nil, gerror.NewErrNoMatchingFile(attempted, failures.ErrorOrNil())
}

// FetchSingle fetches one explicitly named file, converting the typed result into an error.
func FetchSingle(ctx context.Context, location FileLocation, fetch FetchFunc) (*FileContent, error) {
	result := fetch(ctx, location)
	if result.Outcome == OutcomeFound {
		return &FileContent{Location: location, Content: result.Content}, nil
	}
	return nil, result.Err
}
