package storage

import (
	"github.com/Sumatoshi-tech/prism/internal/record"
)

// MemoryStore is a map-backed Store. It preserves record arrival order and
// hands out copies, so callers may mutate what they read without going
// through SetRecords.
type MemoryStore struct {
	domains  map[string]string
	releases []record.Release
	repos    []record.Repo

	order    []string
	records  map[string]*record.Record
	users    map[int]*record.User
	userKeys map[string]int
	userSeq  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  make(map[string]*record.Record),
		users:    make(map[int]*record.User),
		userKeys: make(map[string]int),
	}
}

// CompanyDomains implements Store.
func (s *MemoryStore) CompanyDomains() (map[string]string, error) {
	out := make(map[string]string, len(s.domains))
	for k, v := range s.domains {
		out[k] = v
	}

	return out, nil
}

// SetCompanyDomains implements Store.
func (s *MemoryStore) SetCompanyDomains(domains map[string]string) error {
	s.domains = make(map[string]string, len(domains))
	for k, v := range domains {
		s.domains[k] = v
	}

	return nil
}

// Releases implements Store.
func (s *MemoryStore) Releases() ([]record.Release, error) {
	return append([]record.Release(nil), s.releases...), nil
}

// SetReleases implements Store.
func (s *MemoryStore) SetReleases(releases []record.Release) error {
	s.releases = append([]record.Release(nil), releases...)

	return nil
}

// Repos implements Store.
func (s *MemoryStore) Repos() ([]record.Repo, error) {
	return append([]record.Repo(nil), s.repos...), nil
}

// SetRepos implements Store.
func (s *MemoryStore) SetRepos(repos []record.Repo) error {
	s.repos = append([]record.Repo(nil), repos...)

	return nil
}

// AllRecords implements Store. Records come back in first-insert order.
func (s *MemoryStore) AllRecords() RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		for _, key := range s.order {
			if !yield(s.records[key].Clone(), nil) {
				return
			}
		}
	}
}

// SetRecords implements Store.
func (s *MemoryStore) SetRecords(records RecordSeq) error {
	for r, err := range records {
		if err != nil {
			return err
		}

		if _, exists := s.records[r.PrimaryKey]; !exists {
			s.order = append(s.order, r.PrimaryKey)
		}

		s.records[r.PrimaryKey] = r.Clone()
	}

	return nil
}

// AllUsers implements Store.
func (s *MemoryStore) AllUsers() UserSeq {
	return func(yield func(*record.User, error) bool) {
		for seq := 1; seq <= s.userSeq; seq++ {
			u, ok := s.users[seq]
			if !ok {
				continue
			}

			if !yield(u.Clone(), nil) {
				return
			}
		}
	}
}

// LoadUser implements Store.
func (s *MemoryStore) LoadUser(key string) (*record.User, error) {
	if key == "" {
		return nil, nil
	}

	seq, ok := s.userKeys[key]
	if !ok {
		return nil, nil
	}

	u, ok := s.users[seq]
	if !ok {
		return nil, nil
	}

	return u.Clone(), nil
}

// StoreUser implements Store.
func (s *MemoryStore) StoreUser(user *record.User) error {
	if user.Seq == 0 {
		s.userSeq++
		user.Seq = s.userSeq
	} else if user.Seq > s.userSeq {
		s.userSeq = user.Seq
	}

	s.users[user.Seq] = user.Clone()
	s.indexUser(user)

	return nil
}

// DeleteUser implements Store.
func (s *MemoryStore) DeleteUser(user *record.User) error {
	delete(s.users, user.Seq)

	for key, seq := range s.userKeys {
		if seq == user.Seq {
			delete(s.userKeys, key)
		}
	}

	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) indexUser(user *record.User) {
	if user.UserID != "" {
		s.userKeys[user.UserID] = user.Seq
	}

	if user.LdapID != "" {
		s.userKeys[user.LdapID] = user.Seq
	}

	for _, email := range user.Emails {
		s.userKeys[email] = user.Seq
	}
}

// RecordCount reports the number of stored records.
func (s *MemoryStore) RecordCount() int {
	return len(s.records)
}
