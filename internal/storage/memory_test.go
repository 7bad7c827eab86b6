package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

func TestMemoryStore_SetRecordsUpsertsByPrimaryKey(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()

	require.NoError(t, store.SetRecords(storage.Records([]*record.Record{
		{PrimaryKey: "a", Type: record.TypeCommit, Loc: 1},
		{PrimaryKey: "b", Type: record.TypeCommit, Loc: 2},
	})))

	require.NoError(t, store.SetRecords(storage.Records([]*record.Record{
		{PrimaryKey: "a", Type: record.TypeCommit, Loc: 10},
	})))

	records, err := storage.Drain(store.AllRecords())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a", records[0].PrimaryKey)
	assert.Equal(t, 10, records[0].Loc)
	assert.Equal(t, "b", records[1].PrimaryKey)
}

func TestMemoryStore_AllRecordsKeepsArrivalOrder(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()

	require.NoError(t, store.SetRecords(storage.Records([]*record.Record{
		{PrimaryKey: "z"},
		{PrimaryKey: "a"},
		{PrimaryKey: "m"},
	})))

	// Re-storing an existing key must not move it to the back.
	require.NoError(t, store.SetRecords(storage.Records([]*record.Record{
		{PrimaryKey: "z", Loc: 5},
	})))

	records, err := storage.Drain(store.AllRecords())
	require.NoError(t, err)

	keys := make([]string, 0, len(records))
	for _, rec := range records {
		keys = append(keys, rec.PrimaryKey)
	}

	assert.Equal(t, []string{"z", "a", "m"}, keys)
}

func TestMemoryStore_RecordsAreIsolatedFromCallers(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	rec := &record.Record{PrimaryKey: "a", Loc: 1}

	require.NoError(t, store.SetRecords(storage.Records([]*record.Record{rec})))

	rec.Loc = 99

	records, err := storage.Drain(store.AllRecords())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, 1, records[0].Loc)

	records[0].Loc = 50

	again, err := storage.Drain(store.AllRecords())
	require.NoError(t, err)
	assert.Equal(t, 1, again[0].Loc)
}

func TestMemoryStore_StoreUserAssignsSeqAndIndexes(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	user := &record.User{
		UserID: "jdoe",
		LdapID: "jdoe",
		Emails: []string{"jdoe@example.com", "john@example.org"},
	}

	require.NoError(t, store.StoreUser(user))
	assert.NotZero(t, user.Seq)

	for _, key := range []string{"jdoe", "jdoe@example.com", "john@example.org"} {
		loaded, err := store.LoadUser(key)
		require.NoError(t, err)
		require.NotNil(t, loaded, "key %q", key)
		assert.Equal(t, user.Seq, loaded.Seq)
	}

	missing, err := store.LoadUser("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryStore_StoreUserKeepsExistingSeq(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	user := &record.User{UserID: "jdoe"}

	require.NoError(t, store.StoreUser(user))
	seq := user.Seq

	user.UserName = "John Doe"
	require.NoError(t, store.StoreUser(user))
	assert.Equal(t, seq, user.Seq)

	loaded, err := store.LoadUser("jdoe")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "John Doe", loaded.UserName)
}

func TestMemoryStore_DeleteUser(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()
	user := &record.User{UserID: "jdoe", Emails: []string{"jdoe@example.com"}}

	require.NoError(t, store.StoreUser(user))
	require.NoError(t, store.DeleteUser(user))

	for _, key := range []string{"jdoe", "jdoe@example.com"} {
		loaded, err := store.LoadUser(key)
		require.NoError(t, err)
		assert.Nil(t, loaded, "key %q", key)
	}
}

func TestMemoryStore_Blobs(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryStore()

	require.NoError(t, store.SetCompanyDomains(map[string]string{"example.com": "Example"}))
	require.NoError(t, store.SetReleases([]record.Release{{ReleaseName: "austin", EndDate: 100}}))
	require.NoError(t, store.SetRepos([]record.Repo{{Module: "nova"}}))

	domains, err := store.CompanyDomains()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"example.com": "Example"}, domains)

	releases, err := store.Releases()
	require.NoError(t, err)
	assert.Equal(t, []record.Release{{ReleaseName: "austin", EndDate: 100}}, releases)

	repos, err := store.Repos()
	require.NoError(t, err)
	assert.Equal(t, []record.Repo{{Module: "nova"}}, repos)
}
