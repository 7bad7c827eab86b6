package events_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/prism/internal/events"
)

func decodeAll(t *testing.T, input string) []*events.Event {
	t.Helper()

	var decoded []*events.Event

	for event, err := range events.Decode(strings.NewReader(input)) {
		require.NoError(t, err)

		decoded = append(decoded, event)
	}

	return decoded
}

func TestDecode_Commit(t *testing.T) {
	t.Parallel()

	input := `{"record_type":"commit","commit_id":"deadbeef","author_name":"John Doe",
		"author_email":"JDoe@Example.com","date":1234,"lines_added":10,"lines_deleted":2,
		"module":"nova","branch":"master","subject":"fix things",
		"change_id":["I1"],"coauthor":[{"author_name":"Jane","author_email":"jane@example.com"}]}`

	decoded := decodeAll(t, input)
	require.Len(t, decoded, 1)

	event := decoded[0]
	assert.Equal(t, events.TypeCommit, event.Type)
	require.NotNil(t, event.Commit)
	assert.Equal(t, "deadbeef", event.Commit.CommitID)
	assert.Equal(t, 10, event.Commit.LinesAdded)
	assert.Equal(t, []string{"I1"}, event.Commit.ChangeID)
	require.Len(t, event.Commit.Coauthors, 1)
	assert.Equal(t, "jane@example.com", event.Commit.Coauthors[0].AuthorEmail)
}

func TestDecode_ReviewWithQuotedApprovalValue(t *testing.T) {
	t.Parallel()

	input := `{"record_type":"review","id":"I42","module":"nova","branch":"master",
		"status":"MERGED","createdOn":100,"lastUpdated":200,
		"owner":{"name":"John","email":"jdoe@example.com","username":"jdoe"},
		"patchSets":[{"number":1,"createdOn":110,
			"uploader":{"name":"John","email":"jdoe@example.com","username":"jdoe"},
			"approvals":[
				{"type":"Code-Review","value":"2","grantedOn":120,
				 "by":{"name":"Jane","email":"jane@example.com","username":"jane"}},
				{"type":"Workflow","value":-1,"grantedOn":130,
				 "by":{"name":"Jane","email":"jane@example.com","username":"jane"}}
			]}]}`

	decoded := decodeAll(t, input)
	require.Len(t, decoded, 1)

	review := decoded[0].Review
	require.NotNil(t, review)
	require.Len(t, review.PatchSets, 1)

	approvals := review.PatchSets[0].Approvals
	require.Len(t, approvals, 2)
	assert.Equal(t, events.FlexInt(2), approvals[0].Value)
	assert.Equal(t, events.FlexInt(-1), approvals[1].Value)
}

func TestDecode_UnknownTypeKeepsEnvelopeOnly(t *testing.T) {
	t.Parallel()

	decoded := decodeAll(t, `{"record_type":"ci","job":"gate"}`)
	require.Len(t, decoded, 1)

	assert.Equal(t, "ci", decoded[0].Type)
	assert.Nil(t, decoded[0].Commit)
	assert.Nil(t, decoded[0].Review)
}

func TestDecode_MultipleEvents(t *testing.T) {
	t.Parallel()

	input := `{"record_type":"member","member_id":"1","member_name":"John"}
{"record_type":"bp","id":"nova/bp1","name":"bp1","date_created":100}`

	decoded := decodeAll(t, input)
	require.Len(t, decoded, 2)
	assert.Equal(t, events.TypeMember, decoded[0].Type)
	assert.Equal(t, events.TypeBlueprint, decoded[1].Type)
	require.NotNil(t, decoded[1].Blueprint)
	assert.Equal(t, "nova/bp1", decoded[1].Blueprint.ID)
}

func TestDecode_MissingTypeFailsStream(t *testing.T) {
	t.Parallel()

	var firstErr error

	for _, err := range events.Decode(strings.NewReader(`{"id":"x"}`)) {
		firstErr = err

		break
	}

	require.Error(t, firstErr)
	assert.ErrorIs(t, firstErr, events.ErrMissingType)
}

func TestAccountValid(t *testing.T) {
	t.Parallel()

	assert.True(t, (&events.Account{Email: "a@b.co", Username: "a"}).Valid())
	assert.False(t, (&events.Account{Email: "a@b.co"}).Valid())
	assert.False(t, (&events.Account{Username: "a"}).Valid())

	var missing *events.Account

	assert.False(t, missing.Valid())
}
