// Package events defines the raw, already-fetched event payloads consumed
// by the pipeline and a streaming JSON decoder for them.
package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// Raw event type tags carried in the record_type envelope field.
const (
	TypeCommit    = "commit"
	TypeReview    = "review"
	TypeEmail     = "email"
	TypeBlueprint = "bp"
	TypeMember    = "member"
)

// ErrMissingType indicates an event payload without a record_type tag.
var ErrMissingType = errors.New("events: payload has no record_type")

// Event is the decoded envelope around one raw event. Exactly one payload
// field matching Type is non-nil; unknown types carry no payload and are
// skipped downstream.
type Event struct {
	Type      string
	Commit    *Commit
	Review    *Review
	Email     *Email
	Blueprint *Blueprint
	Member    *Member
}

// Account is a code-review system account reference. Empty Email or
// Username means the identity is incomplete and the owning sub-record is
// dropped during normalization.
type Account struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Valid reports whether the account carries the identity fields
// normalization requires.
func (a *Account) Valid() bool {
	return a != nil && a.Email != "" && a.Username != ""
}

// Coauthor is a commit coauthor signature.
type Coauthor struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email"`
}

// Commit is a raw VCS commit event.
type Commit struct {
	CommitID     string     `json:"commit_id"`
	AuthorName   string     `json:"author_name"`
	AuthorEmail  string     `json:"author_email"`
	Date         int64      `json:"date"`
	LinesAdded   int        `json:"lines_added"`
	LinesDeleted int        `json:"lines_deleted"`
	Module       string     `json:"module"`
	Branch       string     `json:"branch"`
	Subject      string     `json:"subject"`
	ChangeID     []string   `json:"change_id"`
	Coauthors    []Coauthor `json:"coauthor"`
	Release      string     `json:"release"`
}

// PatchSet is one uploaded revision of a review.
type PatchSet struct {
	Number    int        `json:"number"`
	CreatedOn int64      `json:"createdOn"`
	Uploader  *Account   `json:"uploader"`
	Approvals []Approval `json:"approvals"`
}

// Approval is one mark cast on a patch set.
type Approval struct {
	Kind      string   `json:"type"`
	Value     FlexInt  `json:"value"`
	GrantedOn int64    `json:"grantedOn"`
	By        *Account `json:"by"`
}

// Review is a raw code-review request event with its patch sets.
type Review struct {
	ID          string     `json:"id"`
	Module      string     `json:"module"`
	Branch      string     `json:"branch"`
	Subject     string     `json:"subject"`
	Status      string     `json:"status"`
	Owner       *Account   `json:"owner"`
	CreatedOn   int64      `json:"createdOn"`
	LastUpdated int64      `json:"lastUpdated"`
	PatchSets   []PatchSet `json:"patchSets"`
}

// Email is a raw mailing-list message event.
type Email struct {
	MessageID    string   `json:"message_id"`
	AuthorName   string   `json:"author_name"`
	AuthorEmail  string   `json:"author_email"`
	Date         int64    `json:"date"`
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	Module       string   `json:"module"`
	BlueprintIDs []string `json:"blueprint_id"`
}

// Blueprint is a raw feature-blueprint event. Tracker link fields are not
// modeled, so they never reach the canonical records.
type Blueprint struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Module        string `json:"module"`
	Drafter       string `json:"drafter"`
	Owner         string `json:"owner"`
	Assignee      string `json:"assignee"`
	DateCreated   int64  `json:"date_created"`
	DateCompleted int64  `json:"date_completed"`
}

// Member is a raw community membership event.
type Member struct {
	MemberID     string `json:"member_id"`
	MemberName   string `json:"member_name"`
	DateJoined   string `json:"date_joined"`
	Country      string `json:"country"`
	Email        string `json:"email"`
	CompanyDraft string `json:"company_draft"`
}

// FlexInt decodes JSON numbers that arrive either bare or quoted, which
// review servers are known to do for approval values.
type FlexInt int

// UnmarshalJSON implements json.Unmarshaler.
func (v *FlexInt) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(data), `"`)

	parsed, err := strconv.Atoi(text)
	if err != nil {
		return fmt.Errorf("parse approval value %q: %w", text, err)
	}

	*v = FlexInt(parsed)

	return nil
}

// UnmarshalJSON implements json.Unmarshaler, dispatching on record_type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"record_type"`
	}

	err := json.Unmarshal(data, &probe)
	if err != nil {
		return fmt.Errorf("decode event envelope: %w", err)
	}

	if probe.Type == "" {
		return ErrMissingType
	}

	e.Type = probe.Type

	var target any

	switch probe.Type {
	case TypeCommit:
		e.Commit = &Commit{}
		target = e.Commit
	case TypeReview:
		e.Review = &Review{}
		target = e.Review
	case TypeEmail:
		e.Email = &Email{}
		target = e.Email
	case TypeBlueprint:
		e.Blueprint = &Blueprint{}
		target = e.Blueprint
	case TypeMember:
		e.Member = &Member{}
		target = e.Member
	default:
		// Unknown types are preserved as envelope-only events.
		return nil
	}

	err = json.Unmarshal(data, target)
	if err != nil {
		return fmt.Errorf("decode %s event: %w", probe.Type, err)
	}

	return nil
}

// Decode streams events from a reader holding whitespace-separated JSON
// values (one object per line works). The stream terminates at the first
// decode error.
func Decode(r io.Reader) iter.Seq2[*Event, error] {
	return func(yield func(*Event, error) bool) {
		decoder := json.NewDecoder(r)

		for {
			var event Event

			err := decoder.Decode(&event)
			if errors.Is(err, io.EOF) {
				return
			}

			if err != nil {
				yield(nil, err)

				return
			}

			if !yield(&event, nil) {
				return
			}
		}
	}
}
