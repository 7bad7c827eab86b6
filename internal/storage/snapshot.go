package storage

import (
	"encoding/gob"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"

	"github.com/Sumatoshi-tech/prism/internal/record"
)

// Snapshot is a full dump of a store, written as an LZ4-compressed gob
// stream. It is used for backups and for seeding test fixtures.
type Snapshot struct {
	Domains  map[string]string
	Releases []record.Release
	Repos    []record.Repo
	Records  []*record.Record
	Users    []*record.User
}

// TakeSnapshot materializes the full store contents.
func TakeSnapshot(store Store) (*Snapshot, error) {
	snap := &Snapshot{}

	var err error

	snap.Domains, err = store.CompanyDomains()
	if err != nil {
		return nil, err
	}

	snap.Releases, err = store.Releases()
	if err != nil {
		return nil, err
	}

	snap.Repos, err = store.Repos()
	if err != nil {
		return nil, err
	}

	for r, recErr := range store.AllRecords() {
		if recErr != nil {
			return nil, recErr
		}

		snap.Records = append(snap.Records, r)
	}

	for u, userErr := range store.AllUsers() {
		if userErr != nil {
			return nil, userErr
		}

		snap.Users = append(snap.Users, u)
	}

	return snap, nil
}

// WriteTo encodes the snapshot as an LZ4-compressed gob stream.
func (s *Snapshot) WriteTo(w io.Writer) error {
	compressor := lz4.NewWriter(w)

	err := gob.NewEncoder(compressor).Encode(s)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = compressor.Close()
	if err != nil {
		return fmt.Errorf("flush snapshot: %w", err)
	}

	return nil
}

// ReadSnapshot decodes a snapshot from an LZ4-compressed gob stream.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var snap Snapshot

	err := gob.NewDecoder(lz4.NewReader(r)).Decode(&snap)
	if err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}

	return &snap, nil
}

// SaveSnapshot dumps the store to a file.
func SaveSnapshot(store Store, path string) error {
	snap, err := TakeSnapshot(store)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer file.Close()

	return snap.WriteTo(file)
}

// Restore loads the snapshot contents into the store. Existing entries with
// matching keys are overwritten.
func (s *Snapshot) Restore(store Store) error {
	err := store.SetCompanyDomains(s.Domains)
	if err != nil {
		return err
	}

	err = store.SetReleases(s.Releases)
	if err != nil {
		return err
	}

	err = store.SetRepos(s.Repos)
	if err != nil {
		return err
	}

	err = store.SetRecords(Records(s.Records))
	if err != nil {
		return err
	}

	for _, u := range s.Users {
		storeErr := store.StoreUser(u)
		if storeErr != nil {
			return storeErr
		}
	}

	return nil
}
