package scm

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/devboard/devboard/common/gerror"
	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/util"
)

const (
	// maxResponseBytes bounds how much of a response body is read into memory.
	maxResponseBytes = 16 << 20
	// bodyExcerptLength bounds how much of an error body is surfaced to callers.
	bodyExcerptLength = 256
)

var errResponseTooLarge = errors.New("error response body too large")

type FetcherConfig struct {
	// Timeout applies to each individual request. Zero means no timeout.
	Timeout time.Duration
	// CACertificateFile optionally names a PEM bundle trusted, in addition to the
	// system roots, by the validated transport.
	CACertificateFile string
}

// Response is a fully read HTTP response.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// BodyExcerpt returns the start of the body, suitable for error messages.
func (r *Response) BodyExcerpt() string {
	return util.TruncateStringToMaxLength(string(r.Body), bodyExcerptLength)
}

// Fetcher performs outbound GETs against SCM servers. Every fetch is first attempted
// without certificate validation and, unless that attempt produced a 2xx/3xx or a 404,
// is attempted once more with certificate validation. Requests are never retried
// otherwise.
type Fetcher struct {
	insecure     *retryablehttp.Client
	validated    *retryablehttp.Client
	maxBodyBytes int64
	log          logger.Log
}

func NewFetcher(config FetcherConfig, logFactory logger.LogFactory) (*Fetcher, error) {
	insecureTransport := http.DefaultTransport.(*http.Transport).Clone()
	insecureTransport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}

	validatedTransport := http.DefaultTransport.(*http.Transport).Clone()
	if config.CACertificateFile != "" {
		pool, err := loadCertPool(config.CACertificateFile)
		if err != nil {
			return nil, err
		}
		validatedTransport.TLSClientConfig = &tls.Config{RootCAs: pool}
	}
	return NewFetcherWithTransports(
		&http.Client{Transport: insecureTransport, Timeout: config.Timeout},
		&http.Client{Transport: validatedTransport, Timeout: config.Timeout},
		logFactory,
	), nil
}

// NewFetcherWithTransports creates a fetcher using the supplied clients for the first
// and second attempt respectively.
func NewFetcherWithTransports(insecure *http.Client, validated *http.Client, logFactory logger.LogFactory) *Fetcher {
	log := logFactory("Fetcher")
	return &Fetcher{
		insecure:     newSingleShotClient(insecure, log),
		validated:    newSingleShotClient(validated, log),
		maxBodyBytes: maxResponseBytes,
		log:          log,
	}
}

// WithMaxResponseBytes sets the largest response body the fetcher accepts.
// Larger bodies fail with a CommunicationFailed error instead of being truncated.
func (f *Fetcher) WithMaxResponseBytes(n int64) *Fetcher {
	f.maxBodyBytes = n
	return f
}

func newSingleShotClient(httpClient *http.Client, log logger.Log) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = 0
	client.CheckRetry = noRetryPolicy
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	client.Logger = NewLeveledLogger(log)
	return client
}

// noRetryPolicy never retries; the only error it reports is context cancellation.
func noRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	return false, ctx.Err()
}

func loadCertPool(path string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	pem, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading CA certificate file %q: %w", path, err)
	}
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("error no certificates found in %q", path)
	}
	return pool, nil
}

// Fetch GETs url, forwarding authorization as the Authorization header when set.
// An error is returned only when no complete response could be obtained.
func (f *Fetcher) Fetch(ctx context.Context, url string, authorization string) (*Response, error) {
	resp, err := f.get(ctx, f.insecure, url, authorization)
	if err == nil && (resp.StatusCode < http.StatusBadRequest || resp.StatusCode == http.StatusNotFound) {
		return resp, nil
	}
	if errors.Is(err, errResponseTooLarge) {
		return nil, err
	}
	if err != nil {
		f.log.WithField("url", url).Debugf("Unvalidated fetch failed, retrying with certificate validation: %v", err)
	} else {
		f.log.WithField("url", url).Debugf("Unvalidated fetch returned %d, retrying with certificate validation", resp.StatusCode)
	}
	return f.get(ctx, f.validated, url, authorization)
}

// HTTPClient returns the certificate validating client, for API libraries that make
// their own requests.
func (f *Fetcher) HTTPClient() *http.Client {
	return f.validated.HTTPClient
}

// GetWithHeader GETs url with certificate validation and the supplied headers, returning
// the response whatever its status.
func (f *Fetcher) GetWithHeader(ctx context.Context, url string, header http.Header) (*Response, error) {
	return f.do(ctx, f.validated, url, header)
}

func (f *Fetcher) get(ctx context.Context, client *retryablehttp.Client, url string, authorization string) (*Response, error) {
	header := http.Header{}
	if authorization != "" {
		header.Set("Authorization", authorization)
	}
	return f.do(ctx, client, url, header)
}

func (f *Fetcher) do(ctx context.Context, client *retryablehttp.Client, url string, header http.Header) (*Response, error) {
	req, err := retryablehttp.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req = req.WithContext(ctx)
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(io.LimitReader(res.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, gerror.NewErrCommunicationFailed(url, 0, "",
			fmt.Errorf("%w: more than %d bytes", errResponseTooLarge, f.maxBodyBytes))
	}
	f.log.WithFields(logger.Fields{"url": url, "status": res.StatusCode}).Trace("Fetched")
	return &Response{
		URL:        url,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}, nil
}
