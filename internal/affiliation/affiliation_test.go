package affiliation_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/prism/internal/affiliation"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCompanyByEmail_LongestSuffixWins(t *testing.T) {
	t.Parallel()

	index := affiliation.NewIndex(map[string]string{
		"example.com":     "Example",
		"lab.example.com": "Example Labs",
	})

	assert.Equal(t, "Example Labs", index.CompanyByEmail("dev@lab.example.com"))
	assert.Equal(t, "Example", index.CompanyByEmail("dev@other.example.com"))
	assert.Equal(t, "Example", index.CompanyByEmail("dev@example.com"))
}

func TestCompanyByEmail_NoMatch(t *testing.T) {
	t.Parallel()

	index := affiliation.NewIndex(map[string]string{"example.com": "Example"})

	assert.Empty(t, index.CompanyByEmail("dev@elsewhere.org"))
	assert.Empty(t, index.CompanyByEmail("not-an-email"))
	assert.Empty(t, index.CompanyByEmail("dev@"))
	assert.Empty(t, index.CompanyByEmail(""))
}

func TestCompanyByEmail_SingleLabelNeverMatches(t *testing.T) {
	t.Parallel()

	// A bare TLD in the index must not catch every address under it.
	index := affiliation.NewIndex(map[string]string{"com": "Catchall"})

	assert.Empty(t, index.CompanyByEmail("dev@example.com"))
}

func TestCompanyByName(t *testing.T) {
	t.Parallel()

	index := affiliation.NewIndex(map[string]string{"acmeinc": "Acme Inc"})

	assert.Equal(t, "Acme Inc", index.CompanyByName("acmeinc"))
	assert.Empty(t, index.CompanyByName("unknown"))
}

func TestNormalizeCompanyName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acmeinc", affiliation.NormalizeCompanyName("Acme, Inc."))
	assert.Equal(t, "3par", affiliation.NormalizeCompanyName("3PAR"))
	assert.Empty(t, affiliation.NormalizeCompanyName("---"))
}

func TestCompanyAt_Boundaries(t *testing.T) {
	t.Parallel()

	intervals := []record.CompanyInterval{
		{CompanyName: "First", EndDate: 100},
		{CompanyName: "Second", EndDate: 200},
		{CompanyName: "Current", EndDate: 0},
	}

	assert.Equal(t, "First", affiliation.CompanyAt(intervals, 50))
	// An interval covers dates strictly before its end date.
	assert.Equal(t, "Second", affiliation.CompanyAt(intervals, 100))
	assert.Equal(t, "Second", affiliation.CompanyAt(intervals, 199))
	assert.Equal(t, "Current", affiliation.CompanyAt(intervals, 200))
	assert.Equal(t, "Current", affiliation.CompanyAt(intervals, 1_000_000))
}

func TestCalendarRelease(t *testing.T) {
	t.Parallel()

	calendar := affiliation.NewCalendar([]record.Release{
		{ReleaseName: "austin", EndDate: 100},
		{ReleaseName: "bexar", EndDate: 200},
	}, discardLogger())

	assert.Equal(t, "austin", calendar.Release(0))
	assert.Equal(t, "austin", calendar.Release(99))
	// A release boundary belongs to the next release.
	assert.Equal(t, "bexar", calendar.Release(100))
	assert.Equal(t, "bexar", calendar.Release(199))
}

func TestCalendarRelease_ClampsBeyondLastBoundary(t *testing.T) {
	t.Parallel()

	calendar := affiliation.NewCalendar([]record.Release{
		{ReleaseName: "austin", EndDate: 100},
		{ReleaseName: "bexar", EndDate: 200},
	}, discardLogger())

	assert.Equal(t, "bexar", calendar.Release(200))
	assert.Equal(t, "bexar", calendar.Release(10_000))
}
