package seed_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/seed"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

const validDefaultData = `{
  "companies": [
    {"company_name": "Acme Inc", "domains": ["Acme.com", "acme.org"]},
    {"company_name": "Solo", "domains": []}
  ],
  "releases": [
    {"release_name": "bexar", "end_date": 200},
    {"release_name": "austin", "end_date": 100}
  ],
  "repos": [
    {"module": "nova", "aliases": ["openstack-compute"]}
  ]
}`

func TestLoadDefaultData(t *testing.T) {
	t.Parallel()

	data, err := seed.LoadDefaultData(writeFile(t, "data.json", validDefaultData))
	require.NoError(t, err)

	require.Len(t, data.Companies, 2)
	assert.Equal(t, "Acme Inc", data.Companies[0].CompanyName)
	require.Len(t, data.Releases, 2)
	require.Len(t, data.Repos, 1)
}

func TestLoadDefaultData_RejectsSchemaViolations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "company without domains", body: `{"companies":[{"company_name":"Acme"}]}`},
		{name: "empty company name", body: `{"companies":[{"company_name":"","domains":[]}]}`},
		{name: "release with string date", body: `{"releases":[{"release_name":"austin","end_date":"100"}]}`},
		{name: "unknown top-level key", body: `{"users":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := seed.LoadDefaultData(writeFile(t, "data.json", tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, seed.ErrInvalidDefaultData)
		})
	}
}

func TestDomainIndex(t *testing.T) {
	t.Parallel()

	data, err := seed.LoadDefaultData(writeFile(t, "data.json", validDefaultData))
	require.NoError(t, err)

	index := data.DomainIndex()

	// Domains are lowercased; normalized company names join the index.
	assert.Equal(t, "Acme Inc", index["acme.com"])
	assert.Equal(t, "Acme Inc", index["acme.org"])
	assert.Equal(t, "Acme Inc", index["acmeinc"])
	assert.Equal(t, "Solo", index["solo"])
}

func TestApply_SortsReleases(t *testing.T) {
	t.Parallel()

	data, err := seed.LoadDefaultData(writeFile(t, "data.json", validDefaultData))
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	require.NoError(t, data.Apply(store))

	releases, err := store.Releases()
	require.NoError(t, err)
	assert.Equal(t, []record.Release{
		{ReleaseName: "austin", EndDate: 100},
		{ReleaseName: "bexar", EndDate: 200},
	}, releases)

	repos, err := store.Repos()
	require.NoError(t, err)
	require.Len(t, repos, 1)
	assert.Equal(t, "nova", repos[0].Module)
}

func TestLoadReposYAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "repos.yaml", `repos:
  - module: nova
    aliases:
      - openstack-compute
  - module: glance
`)

	repos, err := seed.LoadReposYAML(path)
	require.NoError(t, err)
	require.Len(t, repos, 2)
	assert.Equal(t, "nova", repos[0].Module)
	assert.Equal(t, []string{"openstack-compute"}, repos[0].Aliases)
	assert.Equal(t, "glance", repos[1].Module)
}
