// Package affiliation resolves employer affiliation from email domains and
// employment intervals, and maps timestamps onto the release calendar.
package affiliation

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/prism/internal/record"
)

// minSuffixLabels is the shortest domain suffix tried against the index.
// Single labels like "org" would match far too broadly.
const minSuffixLabels = 2

// Index maps normalized email-domain suffixes to company names.
type Index struct {
	domains map[string]string
}

// NewIndex wraps a domain-suffix index. The map is used as-is.
func NewIndex(domains map[string]string) *Index {
	return &Index{domains: domains}
}

// CompanyByEmail resolves the company for an email by longest-suffix domain
// match. It returns "" when the email has no domain part or nothing matches.
func (ix *Index) CompanyByEmail(email string) string {
	_, domain, found := strings.Cut(email, "@")
	if !found || domain == "" {
		return ""
	}

	labels := strings.Split(domain, ".")
	for i := len(labels); i >= minSuffixLabels; i-- {
		suffix := strings.Join(labels[len(labels)-i:], ".")
		if company, ok := ix.domains[suffix]; ok {
			return company
		}
	}

	return ""
}

// CompanyByName looks up an exact normalized company name in the index.
// The index carries normalized company names alongside domain suffixes, so
// self-reported company spellings can be folded onto the canonical name.
func (ix *Index) CompanyByName(name string) string {
	return ix.domains[name]
}

// NormalizeCompanyName collapses a free-form company string to a lookup
// token, keeping only lowercase letters and digits.
func NormalizeCompanyName(name string) string {
	var builder strings.Builder

	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}

// CompanyAt returns the company employing the user at the given date: the
// first interval whose end date strictly exceeds the date, or the last
// interval when none does (the open-ended 0 sentinel sorts last).
func CompanyAt(companies []record.CompanyInterval, date int64) string {
	for _, interval := range companies {
		if date < interval.EndDate {
			return interval.CompanyName
		}
	}

	return companies[len(companies)-1].CompanyName
}

// Calendar performs binary-search release lookup over ascending end dates.
type Calendar struct {
	releases []record.Release
	endDates []int64
	logger   *slog.Logger
}

// NewCalendar builds a release calendar. Releases must be ascending by end
// date; the calendar never mutates them.
func NewCalendar(releases []record.Release, logger *slog.Logger) *Calendar {
	endDates := make([]int64, len(releases))
	for i, r := range releases {
		endDates[i] = r.EndDate
	}

	return &Calendar{releases: releases, endDates: endDates, logger: logger}
}

// Release maps a timestamp to its release name. Timestamps beyond the last
// known boundary clamp to the last release; that anomaly is logged, never
// fatal.
func (c *Calendar) Release(timestamp int64) string {
	idx := sort.Search(len(c.endDates), func(i int) bool {
		return c.endDates[i] > timestamp
	})

	if idx >= len(c.releases) {
		c.logger.Warn("timestamp is beyond release boundaries, using the last release",
			slog.Int64("timestamp", timestamp))

		idx = len(c.releases) - 1
	}

	return c.releases[idx].ReleaseName
}
