package modules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/prism/internal/modules"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

func TestNewRegistry_DropsSubstringNames(t *testing.T) {
	t.Parallel()

	registry := modules.NewRegistry([]record.Repo{
		{Module: "nova"},
		{Module: "python-novaclient"},
		{Module: "glance"},
	})

	// "nova" is a substring of "python-novaclient" and must not survive,
	// regardless of insertion order.
	assert.Equal(t, []string{"glance", "python-novaclient"}, registry.Names())

	reversed := modules.NewRegistry([]record.Repo{
		{Module: "python-novaclient"},
		{Module: "nova"},
		{Module: "glance"},
	})

	assert.Equal(t, []string{"glance", "python-novaclient"}, reversed.Names())
}

func TestNewRegistry_AliasesJoinTheNameSet(t *testing.T) {
	t.Parallel()

	registry := modules.NewRegistry([]record.Repo{
		{Module: "neutron", Aliases: []string{"quantum"}},
	})

	assert.Equal(t, []string{"neutron", "quantum"}, registry.Names())
	assert.Equal(t, "neutron", registry.Canonical("quantum"))
	assert.Equal(t, "neutron", registry.Canonical("neutron"))
	assert.Equal(t, "other", registry.Canonical("other"))
}

func TestGuess_LeftmostMatchWins(t *testing.T) {
	t.Parallel()

	registry := modules.NewRegistry([]record.Repo{
		{Module: "glance"},
		{Module: "keystone"},
	})

	name, authoritative := registry.Guess("keystone breaks glance images")
	assert.Equal(t, "keystone", name)
	assert.False(t, authoritative)
}

func TestGuess_BracketPrefixIsAuthoritative(t *testing.T) {
	t.Parallel()

	registry := modules.NewRegistry([]record.Repo{{Module: "glance"}})

	name, authoritative := registry.Guess("[Glance] image upload broken")
	assert.Equal(t, "glance", name)
	assert.True(t, authoritative)

	name, authoritative = registry.Guess("glance image upload broken")
	assert.Equal(t, "glance", name)
	assert.False(t, authoritative)
}

func TestGuess_NoMatch(t *testing.T) {
	t.Parallel()

	registry := modules.NewRegistry([]record.Repo{{Module: "glance"}})

	name, authoritative := registry.Guess("unrelated subject")
	assert.Empty(t, name)
	assert.False(t, authoritative)
}

func TestApplyGuess(t *testing.T) {
	t.Parallel()

	registry := modules.NewRegistry([]record.Repo{
		{Module: "neutron", Aliases: []string{"quantum"}},
		{Module: "glance"},
	})

	tests := []struct {
		name    string
		module  string
		subject string
		want    string
	}{
		{name: "fills unset module", module: "", subject: "glance is slow", want: "glance"},
		{name: "plain match keeps existing tag", module: "glance", subject: "about neutron", want: "glance"},
		{name: "authoritative match overwrites", module: "glance", subject: "[neutron] port binding", want: "neutron"},
		{name: "alias canonicalized", module: "", subject: "[quantum] dhcp agent", want: "neutron"},
		{name: "no match falls back to unknown", module: "", subject: "weekly meeting", want: record.ModuleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := &record.Record{Module: tt.module}
			registry.ApplyGuess(rec, tt.subject)

			assert.Equal(t, tt.want, rec.Module)
		})
	}
}
