package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/jonwraymond/navkit/auth"
	"github.com/jonwraymond/navkit/loader"
	"github.com/jonwraymond/navkit/navhttp"
	"github.com/jonwraymond/navkit/secret"
)

// settings is the daemon configuration after flags, environment and the
// config file have been merged and secret references resolved.
type settings struct {
	Listen          string
	ShutdownTimeout time.Duration

	ServiceName     string
	LogLevel        string
	TracingExporter string
	TracingSample   float64
	MetricsExporter string

	// Sources maps builder set names to their XML/YAML definition files.
	Sources    map[string][]string
	Hosts      map[string]string
	DefaultSet string
	AppRoot    string
	CacheTTL   time.Duration
	Sliding    time.Duration
	Watch      bool

	SecurityTrimming             bool
	VisibilityAffectsDescendants bool
	UseTitleForDescription       bool

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	APIKeys     map[string]string
	ReleaseRole string
	RBACFile    string

	RedisURL       string
	RedisChannel   string
	PublishRetries int

	BreakerFailures int
	BreakerReset    time.Duration

	PreloadHosts []string
	MaxMenuDepth int
}

func addFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.String("listen", ":8080", "Address the HTTP server listens on")
	f.Duration("shutdown-timeout", 15*time.Second, "Grace period for in-flight requests on shutdown")

	f.String("service-name", "navkitd", "Service name reported to telemetry")
	f.StringP("log-level", "l", "info", "Log level (debug, info, warn, error)")
	f.String("tracing-exporter", "none", "Trace exporter (otlp, stdout, none)")
	f.Float64("tracing-sample", 1.0, "Trace sampling ratio between 0 and 1")
	f.String("metrics-exporter", "none", "Metrics exporter (otlp, prometheus, stdout, none)")

	f.String("sources", "", "Comma-separated sitemap sources. Format: SET=PATH where PATH is a .xml, .yaml or .yml file; repeat a set to merge files")
	f.String("hosts", "", "Comma-separated host to builder set mapping. Format: HOST=SET")
	f.String("default-set", loader.DefaultBuilderSetName, "Builder set for hosts without a mapping")
	f.String("app-root", "/", "Virtual application root used to resolve ~/ URLs")
	f.Duration("cache-ttl", 0, "Absolute lifetime of a cached sitemap (0 keeps it until released)")
	f.Duration("cache-sliding", 0, "Evict sitemaps not read for this long (0 disables)")
	f.Bool("watch", true, "Rebuild a sitemap when one of its source files changes")

	f.Bool("security-trimming", true, "Hide nodes the current user may not access")
	f.Bool("visibility-affects-descendants", false, "Hide the children of hidden nodes")
	f.Bool("use-title-for-description", true, "Use the title when a node has no description")

	f.String("jwt-secret", "", "HMAC secret for bearer tokens; accepts secretref:env:NAME or secretref:file:PATH")
	f.String("jwt-issuer", "", "Expected JWT issuer")
	f.String("jwt-audience", "", "Expected JWT audience")
	f.String("api-keys", "", "Comma-separated operator API keys. Format: PRINCIPAL=KEY; keys accept secret references")
	f.String("release-role", navhttp.DefaultReleaseRole, "Role required to release a sitemap")
	f.String("rbac-file", "", "YAML file with role rules for controller/action access checks")

	f.String("redis-url", "", "Redis URL for broadcasting releases to peers; accepts secret references")
	f.String("redis-channel", "", "Redis channel for release broadcasts")
	f.Int("publish-retries", 3, "Attempts for each release broadcast")

	f.Int("breaker-failures", 5, "Consecutive build failures that pause rebuilding a builder set (0 disables)")
	f.Duration("breaker-reset", 30*time.Second, "How long a failing builder set is paused")

	f.String("preload-hosts", "", "Comma-separated hosts whose sitemaps are built at startup")
	f.Int("max-menu-depth", 0, "Upper bound for the menu depth parameter (0 is unlimited)")
}

// loadSettings reads v and resolves secret references with r.
func loadSettings(ctx context.Context, v *viper.Viper, r *secret.Resolver) (settings, error) {
	s := settings{
		Listen:                       v.GetString("listen"),
		ShutdownTimeout:              v.GetDuration("shutdown-timeout"),
		ServiceName:                  v.GetString("service-name"),
		LogLevel:                     strings.ToLower(v.GetString("log-level")),
		TracingExporter:              v.GetString("tracing-exporter"),
		TracingSample:                v.GetFloat64("tracing-sample"),
		MetricsExporter:              v.GetString("metrics-exporter"),
		DefaultSet:                   v.GetString("default-set"),
		AppRoot:                      v.GetString("app-root"),
		CacheTTL:                     v.GetDuration("cache-ttl"),
		Sliding:                      v.GetDuration("cache-sliding"),
		Watch:                        v.GetBool("watch"),
		SecurityTrimming:             v.GetBool("security-trimming"),
		VisibilityAffectsDescendants: v.GetBool("visibility-affects-descendants"),
		UseTitleForDescription:       v.GetBool("use-title-for-description"),
		JWTIssuer:                    v.GetString("jwt-issuer"),
		JWTAudience:                  v.GetString("jwt-audience"),
		ReleaseRole:                  v.GetString("release-role"),
		RBACFile:                     v.GetString("rbac-file"),
		RedisChannel:                 v.GetString("redis-channel"),
		PublishRetries:               v.GetInt("publish-retries"),
		BreakerFailures:              v.GetInt("breaker-failures"),
		BreakerReset:                 v.GetDuration("breaker-reset"),
		PreloadHosts:                 splitList(listValue(v, "preload-hosts")),
		MaxMenuDepth:                 v.GetInt("max-menu-depth"),
	}

	sources, err := parsePairs(listValue(v, "sources"))
	if err != nil {
		return s, fmt.Errorf("sources: %w", err)
	}
	if len(sources) == 0 {
		return s, fmt.Errorf("sources: %w", errNoSources)
	}
	s.Sources = make(map[string][]string)
	for _, p := range sources {
		if err := checkSourceExt(p.value); err != nil {
			return s, err
		}
		s.Sources[p.key] = append(s.Sources[p.key], p.value)
	}

	hosts, err := parsePairs(listValue(v, "hosts"))
	if err != nil {
		return s, fmt.Errorf("hosts: %w", err)
	}
	s.Hosts = make(map[string]string, len(hosts))
	for _, p := range hosts {
		if _, ok := s.Sources[p.value]; !ok {
			return s, fmt.Errorf("hosts: %q maps to unknown set %q", p.key, p.value)
		}
		s.Hosts[p.key] = p.value
	}
	if _, ok := s.Sources[s.DefaultSet]; !ok {
		return s, fmt.Errorf("default-set: unknown set %q", s.DefaultSet)
	}

	if s.JWTSecret, err = r.ResolveValue(ctx, v.GetString("jwt-secret")); err != nil {
		return s, fmt.Errorf("jwt-secret: %w", err)
	}
	if s.RedisURL, err = r.ResolveValue(ctx, v.GetString("redis-url")); err != nil {
		return s, fmt.Errorf("redis-url: %w", err)
	}

	keys, err := parsePairs(listValue(v, "api-keys"))
	if err != nil {
		return s, fmt.Errorf("api-keys: %w", err)
	}
	s.APIKeys = make(map[string]string, len(keys))
	for _, p := range keys {
		key, err := r.ResolveValue(ctx, p.value)
		if err != nil {
			return s, fmt.Errorf("api-keys: %s: %w", p.key, err)
		}
		s.APIKeys[p.key] = key
	}
	return s, nil
}

// setNames returns the configured builder set names in a stable order.
func (s settings) setNames() []string {
	names := make([]string, 0, len(s.Sources))
	for name := range s.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// loadRBAC reads role rules from a YAML file.
func loadRBAC(path string) (auth.RBACConfig, error) {
	var cfg auth.RBACConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// listValue reads key as a comma-separated string whether it came from a
// flag, the environment, or a YAML list in the config file.
func listValue(v *viper.Viper, key string) string {
	return strings.Join(v.GetStringSlice(key), ",")
}

type pair struct {
	key   string
	value string
}

// parsePairs parses "k=v,k2=v2". Blank items are skipped.
func parsePairs(s string) ([]pair, error) {
	var out []pair
	for _, item := range splitList(s) {
		k, v, ok := strings.Cut(item, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("%w: %q", errInvalidPair, item)
		}
		out = append(out, pair{key: k, value: v})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\n' }) {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func checkSourceExt(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml", ".yaml", ".yml":
		return nil
	default:
		return fmt.Errorf("%w: %s", errUnsupportedSource, path)
	}
}
