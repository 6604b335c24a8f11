package wikia

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the v1 REST endpoint template.
	DefaultAPIURL = "https://{lang}{sub_wiki}.wikia.com/api/v1/{action}"

	// DefaultQueryURL is the MediaWiki api.php endpoint template.
	DefaultQueryURL = "https://{lang}{sub_wiki}.wikia.com/api.php"

	// DefaultPageURL is the template for human-browsable page URLs.
	DefaultPageURL = "https://{lang}{sub_wiki}.wikia.com/wiki/{page}"

	DefaultUserAgent        = "wikia-mcp-server/1.0 (https://github.com/olgasafonova/wikia-mcp-server)"
	DefaultRateLimitMinWait = 50 * time.Millisecond
	DefaultTimeout          = 30 * time.Second
	DefaultMaxRedirects     = 5
	DefaultMaxConcurrent    = 5
)

// Config holds Wikia connection settings
type Config struct {
	// Language is the wiki language prefix (e.g. "de"). Empty selects the
	// default-language wiki.
	Language string

	// UserAgent identifies the client to the wiki
	UserAgent string

	// RateLimit enables minimum spacing between outbound requests
	RateLimit bool

	// RateLimitMinWait is the minimum interval between two requests when
	// RateLimit is enabled
	RateLimitMinWait time.Duration

	// Timeout for API requests
	Timeout time.Duration

	// MaxRedirects bounds how many redirect hops page resolution follows
	MaxRedirects int

	// URL templates. Placeholders: {lang}, {sub_wiki}, {action}, {page}.
	APIURL   string
	QueryURL string
	PageURL  string

	// MaxConcurrentRequests caps parallel transport calls
	MaxConcurrentRequests int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		UserAgent:             DefaultUserAgent,
		RateLimitMinWait:      DefaultRateLimitMinWait,
		Timeout:               DefaultTimeout,
		MaxRedirects:          DefaultMaxRedirects,
		APIURL:                DefaultAPIURL,
		QueryURL:              DefaultQueryURL,
		PageURL:               DefaultPageURL,
		MaxConcurrentRequests: DefaultMaxConcurrent,
	}
}

// LoadConfig loads configuration from WIKIA_* environment variables on top
// of DefaultConfig.
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	cfg.Language = normalizeLanguage(os.Getenv("WIKIA_LANGUAGE"))
	if ua := os.Getenv("WIKIA_USER_AGENT"); ua != "" {
		cfg.UserAgent = ua
	}
	if v := os.Getenv("WIKIA_RATE_LIMIT"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("WIKIA_RATE_LIMIT: %w", err)
		}
		cfg.RateLimit = enabled
	}
	if v := os.Getenv("WIKIA_RATE_LIMIT_MIN_WAIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WIKIA_RATE_LIMIT_MIN_WAIT: %w", err)
		}
		cfg.RateLimitMinWait = d
	}
	if v := os.Getenv("WIKIA_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("WIKIA_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("WIKIA_TIMEOUT: must be positive, got %s", v)
		}
		cfg.Timeout = d
	}
	if v := os.Getenv("WIKIA_MAX_REDIRECTS"); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return nil, fmt.Errorf("WIKIA_MAX_REDIRECTS: %w", err)
		}
		cfg.MaxRedirects = n
	}
	if v := os.Getenv("WIKIA_MAX_CONCURRENT"); v != "" {
		n, err := positiveInt(v)
		if err != nil {
			return nil, fmt.Errorf("WIKIA_MAX_CONCURRENT: %w", err)
		}
		cfg.MaxConcurrentRequests = n
	}
	if v := os.Getenv("WIKIA_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("WIKIA_QUERY_URL"); v != "" {
		cfg.QueryURL = v
	}
	if v := os.Getenv("WIKIA_PAGE_URL"); v != "" {
		cfg.PageURL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the URL templates carry the placeholders the client
// substitutes.
func (c Config) Validate() error {
	if !strings.Contains(c.APIURL, "{action}") {
		return errors.New("API URL template must contain {action}")
	}
	if !strings.Contains(c.PageURL, "{page}") {
		return errors.New("page URL template must contain {page}")
	}
	for name, tmpl := range map[string]string{"API": c.APIURL, "query": c.QueryURL, "page": c.PageURL} {
		if !strings.Contains(tmpl, "{sub_wiki}") {
			return fmt.Errorf("%s URL template must contain {sub_wiki}", name)
		}
	}
	if c.MaxRedirects < 0 {
		return errors.New("max redirects must not be negative")
	}
	return nil
}

func positiveInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// normalizeLanguage lowercases and trims a language code.
func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}

// langPrefix renders a language code as it appears in a host name.
func langPrefix(lang string) string {
	if lang == "" {
		return ""
	}
	return lang + "."
}

func (c Config) apiURL(action, lang, subWiki string) string {
	return expand(c.APIURL, lang, subWiki, action, "")
}

func (c Config) queryURL(lang, subWiki string) string {
	return expand(c.QueryURL, lang, subWiki, "", "")
}

// pageURL renders the browsing URL for a canonical page title.
func (c Config) pageURL(lang, subWiki, title string) string {
	return expand(c.PageURL, lang, subWiki, "", strings.ReplaceAll(title, " ", "_"))
}

func expand(tmpl, lang, subWiki, action, page string) string {
	return strings.NewReplacer(
		"{lang}", langPrefix(lang),
		"{sub_wiki}", subWiki,
		"{action}", action,
		"{page}", page,
	).Replace(tmpl)
}
