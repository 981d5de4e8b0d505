// internal/config/config.go

// Package config loads and validates the startup configuration. Values come
// from flags, environment variables (upper-cased keys, e.g. MONGODB_URI) and
// an optional config file, layered over per-environment defaults. The result
// is immutable for the life of the process.
package config

import (
	"net/url"
	"regexp"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"libraryql/internal/apperr"
)

// Environments.
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// Keys shared by flags, environment variables and config files.
const (
	KeyNodeEnv               = "node_env"
	KeyPort                  = "port"
	KeyMongoURI              = "mongodb_uri"
	KeyMongoDBName           = "mongodb_db_name"
	KeyMongoMaxPoolSize      = "mongodb_max_pool_size"
	KeyMongoSelectionTimeout = "mongodb_server_selection_timeout"
	KeyAllowedOrigins        = "allowed_origins"
	KeyCSRFSecret            = "csrf_secret"
	KeyJSONLimit             = "json_limit"
	KeyThrottleTTL           = "throttle_ttl"
	KeyThrottleLimit         = "throttle_limit"
	KeyDebug                 = "debug"
	KeyLogLevel              = "log_level"
	KeyOTLPEndpoint          = "otlp_endpoint"
	KeyStrictEmptyResults    = "strict_empty_results"
	KeyParallelReverseWrites = "parallel_reverse_writes"
)

const defaultServerSelectionTimeout = 5 * time.Second

var mongoURIPattern = regexp.MustCompile(
	`^mongodb(\+srv)?://(?:(?:[^:]+):(?:[^@]+)@)?(?:(?:[^:]+)|\[(?:[^\]]+)\])(?::(?:\d+))?(?:/(?:[^?]+))?(?:\?(?:.+=.+)(?:&.+=.+)*)?$`)

// Config is the validated configuration surface.
type Config struct {
	Env      string
	Port     int
	Debug    bool
	LogLevel string

	Database Database
	CORS     CORS
	Security Security
	Throttle Throttle

	OTLPEndpoint string

	// StrictEmptyResults makes list and reverse-lookup operations fail with
	// NotFound when nothing matches.
	StrictEmptyResults bool
	// ParallelReverseWrites runs the follow-up reverse-reference writes of a
	// create concurrently instead of one at a time.
	ParallelReverseWrites bool
}

type Database struct {
	URI                    string
	Name                   string
	MaxPoolSize            uint64
	ServerSelectionTimeout time.Duration
}

type CORS struct {
	AllowedOrigins []string
}

type Security struct {
	CSRFSecret string
	// JSONLimit is the maximum request body size in bytes.
	JSONLimit int64
}

type Throttle struct {
	// TTL is the window over which Limit requests are allowed per client.
	TTL   time.Duration
	Limit int
}

// IsProduction reports whether the production profile is active.
func (c *Config) IsProduction() bool { return c.Env == Production }

// RegisterFlags declares one flag per key. Flags carry zero defaults; the
// effective defaults come from the environment profile.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyNodeEnv, "", "Environment: development, production or test.")
	fs.Int(KeyPort, 0, "HTTP listen port.")
	fs.String(KeyMongoURI, "", "MongoDB connection string (mongodb:// or mongodb+srv://).")
	fs.String(KeyMongoDBName, "", "MongoDB database name.")
	fs.Uint64(KeyMongoMaxPoolSize, 0, "Maximum MongoDB connection pool size.")
	fs.Duration(KeyMongoSelectionTimeout, 0, "MongoDB server selection timeout.")
	fs.String(KeyAllowedOrigins, "", "Comma separated list of allowed CORS origins.")
	fs.String(KeyCSRFSecret, "", "Secret used to derive the CSRF protection key.")
	fs.String(KeyJSONLimit, "", "Maximum request body size, e.g. 50mb.")
	fs.Int(KeyThrottleTTL, 0, "Throttling window in milliseconds.")
	fs.Int(KeyThrottleLimit, 0, "Requests allowed per client within the throttling window.")
	fs.Bool(KeyDebug, false, "Expose internal error detail to API callers.")
	fs.String(KeyLogLevel, "", "Log level: debug, info, warn or error.")
	fs.String(KeyOTLPEndpoint, "", "OTLP/HTTP trace collector endpoint (host:port). Tracing is off when empty.")
	fs.Bool(KeyStrictEmptyResults, false, "Report empty list results as NOT_FOUND.")
	fs.Bool(KeyParallelReverseWrites, false, "Run reverse-reference writes concurrently.")
}

// profile returns the per-environment defaults.
func profile(env string) map[string]interface{} {
	common := map[string]interface{}{
		KeyMongoMaxPoolSize:      10,
		KeyMongoSelectionTimeout: defaultServerSelectionTimeout,
		KeyThrottleTTL:           60000,
		KeyStrictEmptyResults:    true,
		KeyParallelReverseWrites: false,
	}
	var p map[string]interface{}
	switch env {
	case Production:
		p = map[string]interface{}{
			KeyPort:          3000,
			KeyJSONLimit:     "15mb",
			KeyThrottleLimit: 20,
			KeyDebug:         false,
			KeyLogLevel:      "error",
		}
	case Test:
		p = map[string]interface{}{
			KeyPort:           3001,
			KeyMongoURI:       "mongodb://localhost:27017",
			KeyMongoDBName:    "graphQL_test",
			KeyCSRFSecret:     "test-secret",
			KeyAllowedOrigins: "http://localhost:4200",
			KeyJSONLimit:      "10mb",
			KeyThrottleLimit:  100,
			KeyDebug:          true,
			KeyLogLevel:       "warn",
		}
	default:
		p = map[string]interface{}{
			KeyPort:           3000,
			KeyMongoURI:       "mongodb://localhost:27017",
			KeyMongoDBName:    "graphQL",
			KeyAllowedOrigins: "http://localhost:4200",
			KeyJSONLimit:      "50mb",
			KeyThrottleLimit:  10,
			KeyDebug:          true,
			KeyLogLevel:       "debug",
		}
	}
	for k, v := range common {
		p[k] = v
	}
	return p
}

// Load reads v and returns the validated configuration. Every problem found
// is reported in a single Configuration error.
func Load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	env := strings.ToLower(strings.TrimSpace(v.GetString(KeyNodeEnv)))
	if env == "" {
		env = Development
	}
	var problems []string
	switch env {
	case Development, Production, Test:
	default:
		problems = append(problems, "node_env must be one of development, production, test")
		env = Development
	}
	for k, val := range profile(env) {
		v.SetDefault(k, val)
	}

	cfg := &Config{
		Env:      env,
		Port:     v.GetInt(KeyPort),
		Debug:    v.GetBool(KeyDebug),
		LogLevel: v.GetString(KeyLogLevel),
		Database: Database{
			URI:                    strings.TrimSpace(v.GetString(KeyMongoURI)),
			Name:                   strings.TrimSpace(v.GetString(KeyMongoDBName)),
			MaxPoolSize:            v.GetUint64(KeyMongoMaxPoolSize),
			ServerSelectionTimeout: v.GetDuration(KeyMongoSelectionTimeout),
		},
		CORS: CORS{AllowedOrigins: splitList(v.GetStringSlice(KeyAllowedOrigins))},
		Security: Security{
			CSRFSecret: v.GetString(KeyCSRFSecret),
		},
		Throttle: Throttle{
			TTL:   time.Duration(v.GetInt(KeyThrottleTTL)) * time.Millisecond,
			Limit: v.GetInt(KeyThrottleLimit),
		},
		OTLPEndpoint:          v.GetString(KeyOTLPEndpoint),
		StrictEmptyResults:    v.GetBool(KeyStrictEmptyResults),
		ParallelReverseWrites: v.GetBool(KeyParallelReverseWrites),
	}

	if raw := v.GetString(KeyJSONLimit); raw != "" {
		n, err := humanize.ParseBytes(raw)
		if err != nil {
			problems = append(problems, "json_limit must be a size such as 50mb")
		} else {
			cfg.Security.JSONLimit = int64(n)
		}
	}

	problems = append(problems, cfg.validate()...)
	if len(problems) > 0 {
		return nil, apperr.Configurationf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}

func (c *Config) validate() []string {
	var problems []string
	if c.Database.URI == "" {
		problems = append(problems, "mongodb_uri is required")
	} else if !ValidMongoURI(c.Database.URI) {
		problems = append(problems, "mongodb_uri must be a valid MongoDB connection string")
	}
	if c.Database.Name == "" {
		problems = append(problems, "mongodb_db_name is required")
	}
	if c.Security.CSRFSecret == "" {
		problems = append(problems, "csrf_secret is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		problems = append(problems, "port must be between 1 and 65535")
	}
	if c.Throttle.TTL <= 0 {
		problems = append(problems, "throttle_ttl must be positive")
	}
	if c.Throttle.Limit <= 0 {
		problems = append(problems, "throttle_limit must be positive")
	}
	if c.Database.MaxPoolSize == 0 {
		problems = append(problems, "mongodb_max_pool_size must be positive")
	}
	for _, origin := range c.CORS.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if u, err := url.Parse(origin); err != nil || u.Scheme == "" || u.Host == "" {
			problems = append(problems, "allowed_origins contains invalid origin "+origin)
		}
	}
	return problems
}

// ValidMongoURI reports whether uri is a mongodb:// or mongodb+srv://
// connection string.
func ValidMongoURI(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "mongodb" && u.Scheme != "mongodb+srv") {
		return false
	}
	return mongoURIPattern.MatchString(uri)
}

func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
