// Package storage defines the runtime store contract the pipeline runs
// against, with a map-backed implementation for tests and an SQLite-backed
// implementation for production corpora.
package storage

import (
	"iter"

	"github.com/Sumatoshi-tech/prism/internal/record"
)

// RecordSeq streams records in arrival order. A non-nil error terminates
// the stream; the paired record is nil in that case.
type RecordSeq = iter.Seq2[*record.Record, error]

// UserSeq streams user profiles. Same error convention as RecordSeq.
type UserSeq = iter.Seq2[*record.User, error]

// Store is the persistent runtime store the pipeline reads and writes.
// Implementations are single-writer per run; concurrent runs must be
// serialized by the caller.
type Store interface {
	// CompanyDomains returns the email-domain-suffix to company index.
	CompanyDomains() (map[string]string, error)
	SetCompanyDomains(domains map[string]string) error

	// Releases returns the release calendar ascending by end date.
	Releases() ([]record.Release, error)
	SetReleases(releases []record.Release) error

	// Repos returns the module registry input.
	Repos() ([]record.Repo, error)
	SetRepos(repos []record.Repo) error

	// AllRecords scans every stored record in arrival order.
	AllRecords() RecordSeq

	// SetRecords upserts every record of the sequence by primary key and
	// stops at the first error produced by the sequence or the store.
	SetRecords(records RecordSeq) error

	// AllUsers scans every stored user profile.
	AllUsers() UserSeq

	// LoadUser resolves a user by any of its keys (user id, directory id,
	// email). A missing user yields (nil, nil).
	LoadUser(key string) (*record.User, error)

	// StoreUser persists the profile, stamping Seq on first persist, and
	// indexes it under its user id, directory id and every email.
	StoreUser(user *record.User) error

	// DeleteUser removes the profile and all its key mappings.
	DeleteUser(user *record.User) error

	Close() error
}

// Records adapts a slice to a RecordSeq.
func Records(records []*record.Record) RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		for _, r := range records {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Drain collects a RecordSeq into a slice, stopping at the first error.
func Drain(seq RecordSeq) ([]*record.Record, error) {
	var out []*record.Record

	for r, err := range seq {
		if err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, nil
}
