package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/devboard/devboard/common/logger"
	"github.com/devboard/devboard/common/models"
	"github.com/devboard/devboard/server/api/rest/server"
	"github.com/devboard/devboard/server/services/credential"
	"github.com/devboard/devboard/server/services/encryption"
	"github.com/devboard/devboard/server/services/factory"
	"github.com/devboard/devboard/server/services/scm"
	"github.com/devboard/devboard/server/services/scm/azure_devops"
	"github.com/devboard/devboard/server/services/scm/bitbucket"
	"github.com/devboard/devboard/server/services/scm/github"
	"github.com/devboard/devboard/server/services/scm/gitlab"
	"github.com/devboard/devboard/server/services/scm/providers"
	"github.com/devboard/devboard/server/store"
	"github.com/devboard/devboard/server/store/migrations"
	"github.com/devboard/devboard/server/store/scm_credentials"
)

const (
	// EnvPrefix prefixes the environment variable for every setting, e.g. DEVBOARD_PUBLIC_URL.
	EnvPrefix = "DEVBOARD"

	DefaultAPIServerAddress = "0.0.0.0:8080"
	DefaultFetchTimeout     = 30 * time.Second
	DefaultShutdownTimeout  = 5 * time.Minute
)

// LogSafeFlags is a list of flags by name whose values are safe to log.
var LogSafeFlags = []string{
	"config",
	"api_server_address",
	"api_server_certificate_file",
	"public_url",
	"cors_allowed_origins",
	"candidate_filenames",
	"github_enterprise_origins",
	"gitlab_server_origins",
	"bitbucket_server_origins",
	"azure_devops_server_origins",
	"github_oauth_client_id",
	"gitlab_oauth_client_id",
	"bitbucket_oauth_client_id",
	"azure_devops_oauth_client_id",
	"oauth_authenticate_endpoint",
	"oauth_redirect_after_login",
	"oauth_token_endpoint",
	"token_refresh_mode",
	"credential_store",
	"database_driver",
	"redis_address",
	"redis_db",
	"key_manager_type",
	"key_manager_aws_kms_region",
	"key_manager_aws_kms_master_key_id",
	"key_manager_aws_kms_access_key_id",
	"fetch_timeout",
	"fetch_ca_certificate_file",
	"log_file",
	"log_levels",
	"dev_include_error_detail",
}

// IdentityJWTKey is the HMAC key identity tokens are signed with. If empty, identity
// token signatures are not checked and the gateway in front of the server is trusted.
type IdentityJWTKey []byte

type EncryptionConfig struct {
	// KeyManagerType specifies which key manager should be used.
	KeyManagerType string
	// LocalKeyManagerMasterKey is the static encryption key to use with the local key manager, if enabled.
	LocalKeyManagerMasterKey encryption.LocalKeyManagerMasterKey
	// AWSKeyManagerConfig contains configuration for the AWS Key Manager, if enabled.
	AWSKeyManagerConfig encryption.AWSKeyManagerConfig
}

func KeyManagerFactory(config EncryptionConfig, logFactory logger.LogFactory) (encryption.KeyManager, error) {
	switch strings.ToLower(config.KeyManagerType) {
	case strings.ToLower(encryption.AWSKeyManagerType.String()):
		return encryption.NewAWSKeyManager(config.AWSKeyManagerConfig, logFactory)
	case "", strings.ToLower(encryption.LocalKeyManagerType.String()):
		if config.LocalKeyManagerMasterKey == nil {
			return nil, errors.New("error local key manager requires a master key")
		}
		return encryption.NewLocalKeyManager(config.LocalKeyManagerMasterKey), nil
	default:
		return nil, fmt.Errorf("error unsupported key manager type: %v", config.KeyManagerType)
	}
}

// CredentialStoreConfig selects and configures the backend holding tokens and rejections.
type CredentialStoreConfig struct {
	Kind       credential.StoreKind
	Database   store.DatabaseConfig
	Redis      credential.RedisConfig
	Encryption EncryptionConfig
}

// CredentialStoreFactory opens the configured credential backend. The returned function
// releases any connection the backend holds.
func CredentialStoreFactory(ctx context.Context, config CredentialStoreConfig, logFactory logger.LogFactory) (credential.Store, func(), error) {
	switch config.Kind {
	case "", credential.MemoryStoreKind:
		return credential.NewMemoryStore(), func() {}, nil
	case credential.DatabaseStoreKind:
		cipher, err := newTokenCipher(config.Encryption, logFactory)
		if err != nil {
			return nil, nil, err
		}
		db, cleanup, err := store.NewDatabase(ctx, config.Database, migrations.NewServerMigrateRunner(logFactory))
		if err != nil {
			return nil, nil, err
		}
		return credential.NewDatabaseStore(
			scm_credentials.NewTokenStore(db, logFactory),
			scm_credentials.NewRejectionStore(db, logFactory),
			cipher,
		), cleanup, nil
	case credential.RedisStoreKind:
		cipher, err := newTokenCipher(config.Encryption, logFactory)
		if err != nil {
			return nil, nil, err
		}
		client, cleanup, err := credential.NewRedisClient(ctx, config.Redis)
		if err != nil {
			return nil, nil, err
		}
		return credential.NewRedisStore(client, cipher), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("error unsupported credential store: %v", config.Kind)
	}
}

func newTokenCipher(config EncryptionConfig, logFactory logger.LogFactory) (*encryption.TokenCipher, error) {
	keyManager, err := KeyManagerFactory(config, logFactory)
	if err != nil {
		return nil, err
	}
	return encryption.NewTokenCipher(keyManager), nil
}

type ServerConfig struct {
	AppAPIConfig          server.AppAPIServerConfig
	CORSAllowedOrigins    server.CORSAllowedOrigins
	IncludeErrorDetail    server.DevIncludeErrorDetail
	FactoryConfig         factory.ServiceConfig
	FetcherConfig         scm.FetcherConfig
	OAuthConfig           scm.OAuthConfig
	TokenSourceConfig     credential.OAuthTokenSourceConfig
	CredentialStoreConfig CredentialStoreConfig
	IdentityJWTKey        IdentityJWTKey
	LogLevels             logger.LogLevelConfig
	// LogFile, if set, receives log output instead of stdout.
	LogFile logger.LogFilePath
	// LogToStdErr keeps stdout free for command output.
	LogToStdErr bool
}

// RegisterServerFlags adds a flag for every server setting.
func RegisterServerFlags(flags *pflag.FlagSet) {
	// API
	flags.String("api_server_address", DefaultAPIServerAddress, "The interface and port to bind the API server to.")
	flags.String("api_server_certificate_file", "", "The PEM certificate to serve HTTPS with. HTTP is served if not set.")
	flags.String("api_server_private_key_file", "", "The PEM private key matching --api_server_certificate_file.")
	flags.String("public_url", "", "The externally visible base URL of this server, used to build links in resolved factories.")
	flags.StringSlice("cors_allowed_origins", nil, "Origins browsers may call the API from. CORS is disabled if empty.")
	flags.Bool("dev_include_error_detail", false, "True to include internal error text in API error responses. This option should not be used in production.")

	// SCM providers
	flags.StringSlice("candidate_filenames", []string(scm.DefaultCandidateFilenames), "Configuration filenames to look for in repositories, in order.")
	flags.StringSlice("github_enterprise_origins", nil, "Origins of GitHub Enterprise servers, e.g. https://github.example.com")
	flags.StringSlice("gitlab_server_origins", nil, "Origins of self-hosted GitLab servers.")
	flags.StringSlice("bitbucket_server_origins", nil, "Origins of Bitbucket Server instances.")
	flags.StringSlice("azure_devops_server_origins", nil, "Origins of Azure DevOps Server instances.")
	flags.Duration("fetch_timeout", DefaultFetchTimeout, "The timeout applied to each request made to an SCM server.")
	flags.String("fetch_ca_certificate_file", "", "A PEM bundle of extra certificate authorities trusted when fetching from SCM servers.")

	// OAuth
	flags.String("github_oauth_client_id", "", "The OAuth client ID used to link callers to GitHub's authorize page.")
	flags.String("gitlab_oauth_client_id", "", "The OAuth client ID used to link callers to GitLab's authorize page.")
	flags.String("bitbucket_oauth_client_id", "", "The OAuth client ID used to link callers to Bitbucket's authorize page.")
	flags.String("azure_devops_oauth_client_id", "", "The OAuth client ID used to link callers to Azure DevOps' authorize page.")
	flags.String("oauth_authenticate_endpoint", "", "The endpoint that starts an OAuth flow on a caller's behalf. Takes precedence over provider authorize pages.")
	flags.String("oauth_redirect_after_login", "", "Where the browser should land once an OAuth flow completes.")
	flags.String("oauth_token_endpoint", "", "The base of the OAuth API tokens from completed OAuth flows are read from.")
	flags.String("identity_jwt_key", "", "The HMAC key identity tokens are signed with. Signatures are not checked if empty.")

	// Credentials
	flags.String("token_refresh_mode", string(factory.RefreshModeForce), "How token refresh requests obtain tokens (force|lazy).")
	flags.String("credential_store", credential.MemoryStoreKind.String(), "Where SCM tokens are held (memory|database|redis).")
	flags.String("database_driver", string(store.Sqlite), "The Database Driver to use (i.e sqlite3|postgres)")
	flags.String("database_connection_string", defaultSQLiteConnectionString, "The connection string for the database")
	flags.Int("database_max_idle_connections", store.DefaultDatabaseMaxIdleConnections, "The maximum number of idle database connections to use")
	flags.Int("database_max_open_connections", store.DefaultDatabaseMaxOpenConnections, "The maximum number of open database connections to use")
	flags.String("redis_address", "localhost:6379", "The address of the redis server, if using the redis credential store.")
	flags.String("redis_password", "", "The password for the redis server, if using the redis credential store.")
	flags.Int("redis_db", 0, "The redis database number, if using the redis credential store.")

	// Encryption
	flags.String("key_manager_type", encryption.LocalKeyManagerType.String(), fmt.Sprintf("The type of key manager to use. Options: %s", strings.Join(encryption.KeyManagerIDs(), ", ")))
	flags.String("key_manager_local_master_key", "", "A hex encoded 256 Bit (32 Byte) key used to encrypt stored tokens, if using the local key manager.")
	flags.String("key_manager_aws_kms_region", "", "The AWS region of the KMS master key, if using the AWS KMS key manager.")
	flags.String("key_manager_aws_kms_master_key_id", "", "The KMS Master Key ID to encrypt data with, if using the AWS KMS key manager.")
	flags.String("key_manager_aws_kms_access_key_id", "", "The AWS Access Key ID to use to authenticate to KMS, if using the AWS KMS key manager.")
	flags.String("key_manager_aws_kms_secret_key", "", "The AWS Secret Key to use to authenticate to KMS, if using the AWS KMS key manager.")

	// Misc
	flags.String("log_file", "", "The path of a file to append logs to instead of writing them to stdout.")
	flags.String("log_levels", "", fmt.Sprintf("A comma separated list of name=level pairs where name is the name of the logger and level is one of: %s", logger.ListLogLevels()))
}

// NewViper returns settings read, in order of precedence, from flags, DEVBOARD_ environment
// variables and the YAML config file. A missing config file is only an error if it was
// named explicitly.
func NewViper(flags *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	err := v.BindPFlags(flags)
	if err != nil {
		return nil, fmt.Errorf("error binding flags: %w", err)
	}

	explicit := configFile != ""
	if !explicit {
		configFile = defaultConfigFilePath
	}
	if _, err := os.Stat(configFile); err != nil {
		if explicit {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		return v, nil
	}
	v.SetConfigFile(configFile)
	err = v.ReadInConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config file (%s): %w", configFile, err)
	}
	return v, nil
}

// LoadServerConfig builds and validates the server configuration from settings.
func LoadServerConfig(v *viper.Viper) (*ServerConfig, error) {
	config := &ServerConfig{
		AppAPIConfig: server.AppAPIServerConfig{
			HTTPServerConfig: server.HTTPServerConfig{
				Address:         v.GetString("api_server_address"),
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		CORSAllowedOrigins: v.GetStringSlice("cors_allowed_origins"),
		IncludeErrorDetail: server.DevIncludeErrorDetail(v.GetBool("dev_include_error_detail")),
		FactoryConfig: factory.ServiceConfig{
			PublicURL:   v.GetString("public_url"),
			RefreshMode: factory.RefreshMode(strings.ToLower(v.GetString("token_refresh_mode"))),
			Providers: providers.Config{
				CandidateFilenames: v.GetStringSlice("candidate_filenames"),
				GitHub:             github.Config{EnterpriseOrigins: v.GetStringSlice("github_enterprise_origins")},
				GitLab:             gitlab.Config{ServerOrigins: v.GetStringSlice("gitlab_server_origins")},
				Bitbucket:          bitbucket.Config{ServerOrigins: v.GetStringSlice("bitbucket_server_origins")},
				AzureDevOps:        azure_devops.Config{ServerOrigins: v.GetStringSlice("azure_devops_server_origins")},
			},
		},
		FetcherConfig: scm.FetcherConfig{
			Timeout:           v.GetDuration("fetch_timeout"),
			CACertificateFile: v.GetString("fetch_ca_certificate_file"),
		},
		OAuthConfig: scm.OAuthConfig{
			AuthenticateEndpoint: v.GetString("oauth_authenticate_endpoint"),
			RedirectAfterLogin:   v.GetString("oauth_redirect_after_login"),
			ClientIDs: map[models.SystemName]string{
				models.GitHubSystem:      v.GetString("github_oauth_client_id"),
				models.GitLabSystem:      v.GetString("gitlab_oauth_client_id"),
				models.BitbucketSystem:   v.GetString("bitbucket_oauth_client_id"),
				models.AzureDevOpsSystem: v.GetString("azure_devops_oauth_client_id"),
			},
		},
		TokenSourceConfig: credential.OAuthTokenSourceConfig{
			Endpoint: v.GetString("oauth_token_endpoint"),
		},
		CredentialStoreConfig: CredentialStoreConfig{
			Kind: credential.StoreKind(strings.ToLower(v.GetString("credential_store"))),
			Database: store.DatabaseConfig{
				Driver:             store.DBDriver(v.GetString("database_driver")),
				ConnectionString:   store.DatabaseConnectionString(v.GetString("database_connection_string")),
				MaxIdleConnections: v.GetInt("database_max_idle_connections"),
				MaxOpenConnections: v.GetInt("database_max_open_connections"),
			},
			Redis: credential.RedisConfig{
				Address:  v.GetString("redis_address"),
				Password: v.GetString("redis_password"),
				DB:       v.GetInt("redis_db"),
			},
			Encryption: EncryptionConfig{
				KeyManagerType: v.GetString("key_manager_type"),
				AWSKeyManagerConfig: encryption.AWSKeyManagerConfig{
					Region:          v.GetString("key_manager_aws_kms_region"),
					MasterKeyID:     v.GetString("key_manager_aws_kms_master_key_id"),
					AccessKeyID:     v.GetString("key_manager_aws_kms_access_key_id"),
					SecretAccessKey: v.GetString("key_manager_aws_kms_secret_key"),
				},
			},
		},
		IdentityJWTKey: IdentityJWTKey(v.GetString("identity_jwt_key")),
		LogLevels:      logger.LogLevelConfig(v.GetString("log_levels")),
		LogFile:        logger.LogFilePath(v.GetString("log_file")),
	}

	// API
	certFile := v.GetString("api_server_certificate_file")
	keyFile := v.GetString("api_server_private_key_file")
	if certFile != "" || keyFile != "" {
		if certFile == "" || keyFile == "" {
			return nil, errors.New("--api_server_certificate_file and --api_server_private_key_file must be set together")
		}
		config.AppAPIConfig.TLSConfig = &server.TLSConfig{CertificateFile: certFile, PrivateKeyFile: keyFile}
	}

	// Credentials
	switch config.FactoryConfig.RefreshMode {
	case factory.RefreshModeForce, factory.RefreshModeLazy:
	default:
		return nil, fmt.Errorf("--token_refresh_mode must be %s or %s", factory.RefreshModeForce, factory.RefreshModeLazy)
	}
	if !config.CredentialStoreConfig.Kind.Valid() {
		return nil, fmt.Errorf("--credential_store must be one of %s, %s or %s",
			credential.MemoryStoreKind, credential.DatabaseStoreKind, credential.RedisStoreKind)
	}

	// Encryption is only needed when tokens leave the process
	if config.CredentialStoreConfig.Kind != credential.MemoryStoreKind {
		keyManagerType, err := encryption.ParseKeyManagerID(strings.ToUpper(config.CredentialStoreConfig.Encryption.KeyManagerType))
		if err != nil {
			return nil, err
		}
		config.CredentialStoreConfig.Encryption.KeyManagerType = keyManagerType.String()
		if keyManagerType == encryption.LocalKeyManagerType {
			masterKey := v.GetString("key_manager_local_master_key")
			if masterKey == "" {
				return nil, errors.New("--key_manager_local_master_key must be set")
			}
			key, err := encryption.ParseLocalMasterKey(masterKey)
			if err != nil {
				return nil, fmt.Errorf("--key_manager_local_master_key: %w", err)
			}
			config.CredentialStoreConfig.Encryption.LocalKeyManagerMasterKey = key
		}
	}

	return config, nil
}
