// Package seed loads reference data into a runtime store: company domain
// mappings, the release calendar and the repository registry.
package seed

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/prism/internal/affiliation"
	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

//go:embed schema.json
var defaultDataSchema string

// ErrInvalidDefaultData reports a default-data document that failed schema
// validation.
var ErrInvalidDefaultData = errors.New("invalid default data")

// Company binds a canonical company name to its email domains.
type Company struct {
	CompanyName string   `json:"company_name"`
	Domains     []string `json:"domains"`
}

// DefaultData is the reference dataset consumed by the pipeline.
type DefaultData struct {
	Companies []Company        `json:"companies"`
	Releases  []record.Release `json:"releases"`
	Repos     []record.Repo    `json:"repos"`
}

// LoadDefaultData reads and validates a default-data JSON file.
func LoadDefaultData(path string) (*DefaultData, error) {
	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read default data: %w", readErr)
	}

	result, validateErr := gojsonschema.Validate(
		gojsonschema.NewStringLoader(defaultDataSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if validateErr != nil {
		return nil, fmt.Errorf("validate default data: %w", validateErr)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return nil, fmt.Errorf("%w: %s", ErrInvalidDefaultData, strings.Join(details, "; "))
	}

	var data DefaultData
	if decodeErr := json.Unmarshal(raw, &data); decodeErr != nil {
		return nil, fmt.Errorf("decode default data: %w", decodeErr)
	}

	return &data, nil
}

// DomainIndex flattens the company list into one lookup map holding both
// lowercased email domains and normalized company names, each pointing at
// the canonical company name.
func (d *DefaultData) DomainIndex() map[string]string {
	index := make(map[string]string)

	for _, company := range d.Companies {
		for _, domain := range company.Domains {
			if domain == "" {
				continue
			}

			index[strings.ToLower(domain)] = company.CompanyName
		}

		index[affiliation.NormalizeCompanyName(company.CompanyName)] = company.CompanyName
	}

	return index
}

// Apply writes the dataset into the store. Releases are sorted ascending by
// end date so the calendar's binary search holds.
func (d *DefaultData) Apply(store storage.Store) error {
	if err := store.SetCompanyDomains(d.DomainIndex()); err != nil {
		return err
	}

	releases := make([]record.Release, len(d.Releases))
	copy(releases, d.Releases)
	sort.SliceStable(releases, func(i, j int) bool { return releases[i].EndDate < releases[j].EndDate })

	if err := store.SetReleases(releases); err != nil {
		return err
	}

	return store.SetRepos(d.Repos)
}

// reposFile mirrors the layout of a repos YAML document.
type reposFile struct {
	Repos []record.Repo `yaml:"repos"`
}

// LoadReposYAML reads a repository registry from a YAML file. The file
// carries a single top-level "repos" list.
func LoadReposYAML(path string) ([]record.Repo, error) {
	raw, readErr := os.ReadFile(path)
	if readErr != nil {
		return nil, fmt.Errorf("read repos file: %w", readErr)
	}

	var file reposFile
	if decodeErr := yaml.Unmarshal(raw, &file); decodeErr != nil {
		return nil, fmt.Errorf("decode repos file: %w", decodeErr)
	}

	return file.Repos, nil
}
