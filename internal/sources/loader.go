package sources

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// registryFile represents the structure of the sources YAML file.
type registryFile struct {
	Sites []map[string]any `yaml:"sites"`
}

// Loader handles loading and validating the site registry.
type Loader struct {
	path string
}

// NewLoader creates a new Loader for the given registry file.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads, decodes and validates all sites from the registry file.
// A malformed registry is a fatal configuration error: no partial
// registry is ever returned.
func (l *Loader) Load() ([]Site, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry YAML: %w", err)
	}

	if len(file.Sites) == 0 {
		return nil, ErrNoSites
	}

	sites := make([]Site, 0, len(file.Sites))
	for _, raw := range file.Sites {
		site, convertErr := convertToSite(raw)
		if convertErr != nil {
			return nil, fmt.Errorf("failed to decode site entry: %w", convertErr)
		}
		if validateErr := site.Validate(); validateErr != nil {
			return nil, fmt.Errorf("invalid site %q: %w", site.Key, validateErr)
		}
		sites = append(sites, site)
	}

	return sites, nil
}

// FilterByKeys narrows sites to those whose key appears in keys, keeping
// registry order. A key that matches no site is a usage error and is
// reported rather than silently ignored.
func FilterByKeys(sites []Site, keys []string) ([]Site, error) {
	wanted := make(map[string]bool, len(keys))
	for _, key := range keys {
		wanted[key] = true
	}

	filtered := make([]Site, 0, len(keys))
	for _, site := range sites {
		if wanted[site.Key] {
			filtered = append(filtered, site)
			delete(wanted, site.Key)
		}
	}

	if len(wanted) > 0 {
		unknown := make([]string, 0, len(wanted))
		for key := range wanted {
			unknown = append(unknown, key)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown site keys: %s", strings.Join(unknown, ", "))
	}

	return filtered, nil
}

// convertToSite converts a raw registry entry to a Site struct.
func convertToSite(raw map[string]any) (Site, error) {
	var site Site
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &site,
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
	})
	if err != nil {
		return Site{}, fmt.Errorf("failed to create decoder: %w", err)
	}

	if decodeErr := decoder.Decode(raw); decodeErr != nil {
		return Site{}, decodeErr
	}

	return site, nil
}
