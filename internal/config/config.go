package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bgricker/adoreport/internal/discovery"
	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Config captures CLI options sourced from config files, the environment or flags.
type Config struct {
	OrgURL  string `yaml:"org_url"`
	Project string `yaml:"project"`
	PAT     string `yaml:"pat"`
	Envt    string `yaml:"envt"`

	Output    string   `yaml:"output"`
	Format    string   `yaml:"format"`
	AllFields bool     `yaml:"all_fields"`
	Fields    []string `yaml:"fields"`
	Verbose   bool     `yaml:"verbose"`

	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`

	APIVersions  APIVersions      `yaml:"api_versions"`
	Environments map[string]Route `yaml:"environments"`
}

// APIVersions overrides the REST API versions and which operations are pinned.
type APIVersions struct {
	Released         string   `yaml:"released"`
	Pinned           string   `yaml:"pinned"`
	PinnedOperations []string `yaml:"pinned_operations"`
}

// Route describes which pipelines an environment selects.
type Route struct {
	Path    string   `yaml:"path"`
	Filters []string `yaml:"filters"`
	// EnvironmentFilter appends "_<envt>_" to Filters.
	EnvironmentFilter bool `yaml:"environment_filter"`
}

const (
	// DefaultOrgURL is the organization queried when none is configured.
	DefaultOrgURL = "https://mycompany.visualstudio.com"
	// DefaultProject is the project resolved when none is configured.
	DefaultProject = "My Default Project Name"

	// FormatCSV writes the report as CSV.
	FormatCSV = "csv"
	// FormatJSON writes the report as a JSON array.
	FormatJSON = "json"

	// EnvPAT is the environment variable consulted for the token.
	EnvPAT = "ADO_PAT"
)

// BuiltinEnvironments are the environment names accepted without configuration.
var BuiltinEnvironments = sets.New("sf_all", "uatcopy1", "staging", "projone", "projtwo")

// Default returns the baseline configuration used when no flags or config file specify values.
func Default() Config {
	return Config{
		OrgURL:    DefaultOrgURL,
		Project:   DefaultProject,
		Format:    FormatCSV,
		Timeout:   30 * time.Second,
		RateLimit: 10,
	}
}

// Load reads the config file from root (or explicit when set). A missing
// default file is ignored; a missing explicit file is an error.
func Load(root, explicit string) (Config, error) {
	cfg := Default()
	rel, err := discovery.ConfigFile(root, explicit)
	if err != nil {
		if errors.Is(err, discovery.ErrNoConfig) {
			return cfg, nil
		}
		return cfg, err
	}

	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, rel)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}

	cfg = merge(cfg, fileCfg)
	return cfg, nil
}

func merge(base, override Config) Config {
	out := base

	if override.OrgURL != "" {
		out.OrgURL = override.OrgURL
	}
	if override.Project != "" {
		out.Project = override.Project
	}
	if override.PAT != "" {
		out.PAT = override.PAT
	}
	if override.Envt != "" {
		out.Envt = override.Envt
	}
	if override.Output != "" {
		out.Output = override.Output
	}
	if override.Format != "" {
		out.Format = override.Format
	}
	if len(override.Fields) > 0 {
		out.Fields = append([]string{}, override.Fields...)
	}
	if override.AllFields {
		out.AllFields = true
	}
	if override.Verbose {
		out.Verbose = true
	}
	if override.Timeout > 0 {
		out.Timeout = override.Timeout
	}
	if override.RateLimit > 0 {
		out.RateLimit = override.RateLimit
	}

	if override.APIVersions.Released != "" {
		out.APIVersions.Released = override.APIVersions.Released
	}
	if override.APIVersions.Pinned != "" {
		out.APIVersions.Pinned = override.APIVersions.Pinned
	}
	if len(override.APIVersions.PinnedOperations) > 0 {
		out.APIVersions.PinnedOperations = append([]string{}, override.APIVersions.PinnedOperations...)
	}

	if len(override.Environments) > 0 {
		routes := make(map[string]Route, len(out.Environments)+len(override.Environments))
		for k, v := range out.Environments {
			routes[k] = v
		}
		for k, v := range override.Environments {
			routes[strings.ToLower(k)] = v
		}
		out.Environments = routes
	}

	return out
}

// ApplyEnv applies values from the process environment. A non-empty
// ADO_PAT takes precedence over a token set in the config file.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvPAT); ok && strings.TrimSpace(v) != "" {
		cfg.PAT = strings.TrimSpace(v)
	}
}

// ApplyFlags mutates cfg by applying values from CLI flags when they are present.
func ApplyFlags(cfg *Config, flags FlagValues) {
	if flags.PAT.Set {
		cfg.PAT = flags.PAT.Value
	}
	if flags.Envt.Set {
		cfg.Envt = flags.Envt.Value
	}
	if flags.OrgURL.Set {
		cfg.OrgURL = flags.OrgURL.Value
	}
	if flags.Project.Set {
		cfg.Project = flags.Project.Value
	}
	if flags.Output.Set {
		cfg.Output = flags.Output.Value
	}
	if flags.Format.Set {
		cfg.Format = flags.Format.Value
	}
	if len(flags.Fields.Values) > 0 {
		cfg.Fields = append([]string{}, flags.Fields.Values...)
	}
	if flags.AllFields.Set {
		cfg.AllFields = flags.AllFields.Value
	}
	if flags.Verbose.Set {
		cfg.Verbose = flags.Verbose.Value
	}
}

// KnownEnvironments returns every accepted environment name.
func (c Config) KnownEnvironments() sets.Set[string] {
	known := sets.New[string]().Union(BuiltinEnvironments)
	for name := range c.Environments {
		known.Insert(strings.ToLower(name))
	}
	return known
}

// Route returns the configured route for envt, if one overrides the built-in routing.
func (c Config) Route(envt string) (Route, bool) {
	r, ok := c.Environments[strings.ToLower(envt)]
	return r, ok
}

// Validate reports every problem with cfg at once.
func (c Config) Validate() error {
	problems := c.connectionProblems()

	known := c.KnownEnvironments()
	switch envt := strings.ToLower(strings.TrimSpace(c.Envt)); {
	case envt == "":
		problems = append(problems, fmt.Sprintf("an environment is required (one of %s)", strings.Join(sets.List(known), ", ")))
	case !known.Has(envt):
		problems = append(problems, fmt.Sprintf("unknown environment %q (one of %s)", c.Envt, strings.Join(sets.List(known), ", ")))
	}

	switch strings.ToLower(c.Format) {
	case FormatCSV, FormatJSON:
	default:
		problems = append(problems, fmt.Sprintf("unsupported format %q", c.Format))
	}

	return joinProblems(problems)
}

// ValidateConnection checks only what is needed to reach the project.
func (c Config) ValidateConnection() error {
	return joinProblems(c.connectionProblems())
}

func (c Config) connectionProblems() []string {
	var problems []string
	if strings.TrimSpace(c.PAT) == "" {
		problems = append(problems, fmt.Sprintf("a personal access token is required (--pat or %s)", EnvPAT))
	}
	if strings.TrimSpace(c.OrgURL) == "" {
		problems = append(problems, "an organization URL is required")
	}
	if strings.TrimSpace(c.Project) == "" {
		problems = append(problems, "a project name is required")
	}
	return problems
}

func joinProblems(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
}

// FlagValues captures CLI flag state with knowledge of whether each flag was set explicitly.
type FlagValues struct {
	PAT       StringFlag
	Envt      StringFlag
	OrgURL    StringFlag
	Project   StringFlag
	Output    StringFlag
	Format    StringFlag
	Fields    SliceFlag
	AllFields BoolFlag
	Verbose   BoolFlag
}

// StringFlag represents a string flag and whether it was set.
type StringFlag struct {
	Value string
	Set   bool
}

// SliceFlag represents a slice flag and whether it captured values via CLI.
type SliceFlag struct {
	Values []string
}

// BoolFlag represents a bool flag and whether it was set.
type BoolFlag struct {
	Value bool
	Set   bool
}
