package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/devboard/devboard/common/logger"
)

// TLSConfig names an existing certificate and key. Certificates are never generated.
type TLSConfig struct {
	CertificateFile string
	PrivateKeyFile  string
}

type HTTPServerConfig struct {
	Address   string
	TLSConfig *TLSConfig
	// ShutdownTimeout bounds how long Stop waits for in-flight requests.
	ShutdownTimeout time.Duration
}

func (c *HTTPServerConfig) GetAddressHost() string {
	if strings.Contains(c.Address, ":") {
		host, _, err := net.SplitHostPort(c.Address)
		if err != nil {
			return ""
		}
		return host
	}
	return c.Address
}

// APIServer is implemented by HTTPServer and servertest.HTTPTestServer
type APIServer interface {
	Start()
	Stop(ctx context.Context) error
	GetServerURL() string
	GetHTTPServer() *http.Server
}

type HTTPServerFactory = func(handler http.Handler, config HTTPServerConfig, log logger.Log) (APIServer, error)

func RealHTTPServerFactory() HTTPServerFactory {
	return func(handler http.Handler, config HTTPServerConfig, log logger.Log) (APIServer, error) {
		return NewHTTPServer(handler, config, log)
	}
}

// HTTPServer is an HTTP(S) server that can serve API requests.
type HTTPServer struct {
	httpServer *http.Server
	config     HTTPServerConfig
	log        logger.Log
}

func NewHTTPServer(
	handler http.Handler,
	config HTTPServerConfig,
	log logger.Log,
) (*HTTPServer, error) {
	if config.TLSConfig != nil && (config.TLSConfig.CertificateFile == "" || config.TLSConfig.PrivateKeyFile == "") {
		return nil, fmt.Errorf("error TLS requires both a certificate file and a private key file")
	}
	httpServer := &http.Server{
		Addr:              config.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return &HTTPServer{
		httpServer: httpServer,
		config:     config,
		log:        log,
	}, nil
}

// Start starts listening on the API server port.
// ListenAndServe is called on a goroutine so this function returns immediately.
func (s *HTTPServer) Start() {
	go func() {
		var err error
		if s.config.TLSConfig != nil {
			s.log.Infof("HTTPS listening on %s", s.httpServer.Addr)
			err = s.httpServer.ListenAndServeTLS(s.config.TLSConfig.CertificateFile, s.config.TLSConfig.PrivateKeyFile)
		} else {
			s.log.Infof("HTTP listening on %s", s.httpServer.Addr)
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			// If we can't start the main HTTP server then log an error and terminate the process
			s.log.Fatalf("Error starting server: %s", err)
		}
	}()
}

// Stop shuts down the HTTP server gracefully, allowing existing HTTP requests to complete
// until ctx is done or the configured shutdown timeout expires.
// Shutdown should only be called once.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	err := s.httpServer.Shutdown(ctx)
	if err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}
	return nil
}

func (s *HTTPServer) GetServerURL() string {
	if s.config.TLSConfig != nil {
		return fmt.Sprintf("https://%s", s.httpServer.Addr)
	}
	return fmt.Sprintf("http://%s", s.httpServer.Addr)
}

func (s *HTTPServer) GetHTTPServer() *http.Server {
	return s.httpServer
}
