// Package config loads the node configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all settings of a storage node.
type Config struct {
	// Application settings
	Port      string `envconfig:"PORT" default:"8080"`
	GinMode   string `envconfig:"GIN_MODE" default:"debug"`
	PublicURL string `envconfig:"PUBLIC_URL" default:"http://localhost:8080"`

	// Backends
	MongodbURL    string `envconfig:"MONGODB_URL" required:"true"`
	MongoDatabase string `envconfig:"MONGO_DATABASE" default:"melostore"`
	ValkeyURL     string `envconfig:"VALKEY_URL"`
	StoragePath   string `envconfig:"STORAGE_PATH" default:"./data/blobs"`
	// StorageCapacity bounds the blob directory in bytes, 0 means unbounded
	StorageCapacity int64 `envconfig:"STORAGE_CAPACITY"`

	// Network
	Peers []string `envconfig:"PEERS"`
	// RequestTimeout is the total budget of one client request fanned out
	// over the network
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10m"`
	// PeerRequestTimeout bounds a single peer call inside that budget
	PeerRequestTimeout time.Duration `envconfig:"PEER_REQUEST_TIMEOUT" default:"10s"`

	// Music tuning
	Similarity             float64       `envconfig:"SIMILARITY" default:"0.91"`
	TitlePriority          float64       `envconfig:"TITLE_PRIORITY" default:"0.5"`
	FindingStringMinLength int           `envconfig:"FINDING_STRING_MIN_LENGTH" default:"4"`
	FindingLimit           int           `envconfig:"FINDING_LIMIT" default:"200"`
	RelevanceWindow        time.Duration `envconfig:"RELEVANCE_WINDOW" default:"336h"`
	CleanupInterval        time.Duration `envconfig:"CLEANUP_INTERVAL" default:"1m"`
	LinkCacheTTL           time.Duration `envconfig:"LINK_CACHE_TTL" default:"24h"`

	// Cover preparation
	PrepareTitle     bool `envconfig:"PREPARE_TITLE" default:"true"`
	PrepareCover     bool `envconfig:"PREPARE_COVER" default:"true"`
	CoverQuality     int  `envconfig:"COVER_QUALITY" default:"80"`
	CoverMinSize     int  `envconfig:"COVER_MIN_SIZE" default:"200"`
	CoverMaxSize     int  `envconfig:"COVER_MAX_SIZE" default:"500"`
	CoverMaxFileSize int  `envconfig:"COVER_MAX_FILE_SIZE" default:"112640"`

	// ApprovalSecret signs the approval tokens required for priority one
	// additions. Empty disables the controlled mode.
	ApprovalSecret string `envconfig:"APPROVAL_SECRET"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Controlled reports whether the node requires approval for priority one
// additions.
func (c *Config) Controlled() bool {
	return c.ApprovalSecret != ""
}

// Address returns the host[:port] part of the public URL, the identity this
// node announces in song links.
func (c *Config) Address() string {
	u, err := url.Parse(c.PublicURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Protocol returns the scheme of the public URL.
func (c *Config) Protocol() string {
	u, err := url.Parse(c.PublicURL)
	if err != nil {
		return "http"
	}
	return u.Scheme
}

func (c *Config) validate() error {
	if c.Similarity < 0 || c.Similarity > 1 {
		return fmt.Errorf("similarity must be in [0,1], got %v", c.Similarity)
	}
	if c.TitlePriority <= 0 || c.TitlePriority > 1 {
		return fmt.Errorf("title priority must be in (0,1], got %v", c.TitlePriority)
	}
	if c.FindingStringMinLength < 1 {
		return fmt.Errorf("finding string min length must be positive, got %d", c.FindingStringMinLength)
	}
	if u, err := url.Parse(c.PublicURL); err != nil || u.Host == "" {
		return fmt.Errorf("public URL %q is not a valid URL", c.PublicURL)
	}
	return nil
}
