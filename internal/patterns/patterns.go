// Package patterns holds the static detection data the analyzers run on:
// permission risk tiers, behavior signature regexes, domain reputation lists,
// the brand corpus for typosquat comparison, and library version banners.
// The library is a versioned data asset, not code — growing detection
// coverage means shipping a new bundle, not touching analyzer logic.
package patterns

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultBundle []byte

//go:embed schema.json
var bundleSchema []byte

// Tier is a closed risk classification used for both permission tiers and
// behavior pattern severities.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierCritical
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseTier maps a bundle string to a Tier.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(s) {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	case "critical":
		return TierCritical, nil
	default:
		return TierLow, fmt.Errorf("invalid risk tier %q", s)
	}
}

// UnmarshalYAML decodes a tier from its bundle string form.
func (t *Tier) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseTier(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes a tier as its bundle string form.
func (t Tier) MarshalYAML() (any, error) { return t.String(), nil }

// PermissionRisk classifies a single browser permission.
type PermissionRisk struct {
	Tier     Tier   `yaml:"tier"`
	Category string `yaml:"category"`
}

// BehaviorPattern is one entry of the behavior signature catalog.
type BehaviorPattern struct {
	Name     string `yaml:"name"`
	Pattern  string `yaml:"pattern"`
	Category string `yaml:"category"`
	Severity Tier   `yaml:"severity"`

	re *regexp.Regexp
}

// Match returns all occurrences of the pattern in content, case-insensitive.
func (p *BehaviorPattern) Match(content string) []string {
	return p.re.FindAllString(content, -1)
}

// LibraryBanner fingerprints a bundled third-party library by its
// conventional version banner.
type LibraryBanner struct {
	Name    string `yaml:"name"`
	Pattern string `yaml:"pattern"`

	re *regexp.Regexp
}

// FindVersion returns the semantic version captured by the banner regex, or
// an empty string when the library is not present in content.
func (b *LibraryBanner) FindVersion(content string) string {
	m := b.re.FindStringSubmatch(content)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Library is a loaded, compiled pattern bundle. It is read-only after Load
// and safe to share across concurrent pipeline runs.
type Library struct {
	Version          string                    `yaml:"version"`
	PermissionRisks  map[string]PermissionRisk `yaml:"permission_risks"`
	Behavior         []BehaviorPattern         `yaml:"behavior_patterns"`
	MaliciousDomains []string                  `yaml:"malicious_domains"`
	TrackingDomains  []string                  `yaml:"tracking_domains"`
	SuspiciousTLDs   []string                  `yaml:"suspicious_tlds"`
	PopularDomains   []string                  `yaml:"popular_domains"`
	PhishingKeywords []string                  `yaml:"phishing_keywords"`
	LibraryBanners   []LibraryBanner           `yaml:"library_banners"`
}

// Load reads, validates, and compiles a pattern bundle from a YAML file.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading pattern bundle: %w", err)
	}
	return Parse(data)
}

// Parse validates and compiles a pattern bundle from YAML bytes.
func Parse(data []byte) (*Library, error) {
	if err := validateBundle(data); err != nil {
		return nil, err
	}

	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parsing pattern bundle: %w", err)
	}
	if err := lib.compile(); err != nil {
		return nil, err
	}
	return &lib, nil
}

// validateBundle checks the bundle structure against the embedded JSON
// schema before decoding, so a malformed bundle fails loudly at load time
// instead of surfacing as odd analyzer behavior.
func validateBundle(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing pattern bundle: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(bundleSchema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("validating pattern bundle: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid pattern bundle: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func (l *Library) compile() error {
	for i := range l.Behavior {
		re, err := regexp.Compile("(?i)" + l.Behavior[i].Pattern)
		if err != nil {
			return fmt.Errorf("compiling behavior pattern %q: %w", l.Behavior[i].Name, err)
		}
		l.Behavior[i].re = re
	}
	for i := range l.LibraryBanners {
		re, err := regexp.Compile("(?i)" + l.LibraryBanners[i].Pattern)
		if err != nil {
			return fmt.Errorf("compiling library banner %q: %w", l.LibraryBanners[i].Name, err)
		}
		l.LibraryBanners[i].re = re
	}
	return nil
}

var (
	defaultLib  *Library
	defaultOnce sync.Once
)

// Default returns the embedded pattern bundle. The embedded bundle is part
// of the build, so a parse failure is a programming error.
func Default() *Library {
	defaultOnce.Do(func() {
		lib, err := Parse(defaultBundle)
		if err != nil {
			panic(fmt.Sprintf("embedded pattern bundle is invalid: %v", err))
		}
		defaultLib = lib
	})
	return defaultLib
}
