// Package record defines the canonical flat record schema shared by the
// ingestion and recomputation pipelines, plus the user identity profile
// and the release calendar entry.
package record

// Record type discriminators.
const (
	TypeCommit             = "commit"
	TypeReview             = "review"
	TypePatch              = "patch"
	TypeMark               = "mark"
	TypeEmail              = "email"
	TypeBlueprintDrafted   = "bpd"
	TypeBlueprintCompleted = "bpc"
	TypeMember             = "member"
)

// Synthetic company names.
const (
	CompanyIndependent = "*independent"
	CompanyRobots      = "*robots"
)

// ModuleUnknown is assigned when module guessing finds nothing.
const ModuleUnknown = "unknown"

// secondsPerWeek is the width of one week bucket.
const secondsPerWeek = 7 * 24 * 3600

// Week returns the week bucket for a Unix timestamp.
func Week(timestamp int64) int64 {
	return timestamp / secondsPerWeek
}

// Record is one normalized fact. The header fields are populated for every
// record type; the remaining fields are type-specific and stay at their
// zero value for types that do not use them.
type Record struct {
	PrimaryKey string `json:"primary_key"`
	Type       string `json:"record_type"`
	Date       int64  `json:"date"`
	Week       int64  `json:"week"`
	Release    string `json:"release"`

	// Identity fields, always re-resolved from the current user profile.
	UserID      string `json:"user_id"`
	LdapID      string `json:"ldap_id,omitempty"`
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
	CompanyName string `json:"company_name"`

	Module string `json:"module,omitempty"`
	Branch string `json:"branch,omitempty"`

	// Commit fields.
	CommitID     string   `json:"commit_id,omitempty"`
	CommitDate   int64    `json:"commit_date,omitempty"`
	LinesAdded   int      `json:"lines_added,omitempty"`
	LinesDeleted int      `json:"lines_deleted,omitempty"`
	Loc          int      `json:"loc,omitempty"`
	ChangeID     []string `json:"change_id,omitempty"`

	// Review fields. ID doubles as the blueprint id on bpd/bpc records.
	ID           string `json:"id,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Status       string `json:"status,omitempty"`
	LastUpdated  int64  `json:"last_updated,omitempty"`
	UpdatedOn    int64  `json:"updated_on,omitempty"`
	Value        int    `json:"value,omitempty"`
	ReviewNumber int    `json:"review_number,omitempty"`

	// Patch and mark fields. Kind is the approval category
	// (Code-Review or Workflow) on mark records.
	ReviewID     string `json:"review_id,omitempty"`
	Number       int    `json:"number,omitempty"`
	Patch        int    `json:"patch,omitempty"`
	Kind         string `json:"type,omitempty"`
	Disagreement bool   `json:"disagreement,omitempty"`

	// Email fields. Body is stripped unless the message references
	// a blueprint.
	MessageID    string   `json:"message_id,omitempty"`
	Body         string   `json:"body,omitempty"`
	BlueprintIDs []string `json:"blueprint_id,omitempty"`

	// Blueprint fields.
	Name         string `json:"name,omitempty"`
	MentionCount int    `json:"mention_count,omitempty"`
	MentionDate  int64  `json:"mention_date,omitempty"`

	// Member fields.
	MemberID string `json:"member_id,omitempty"`
	Country  string `json:"country,omitempty"`
}

// CompanyInterval is one employment interval of a user. EndDate 0 is the
// open-ended sentinel and sorts last.
type CompanyInterval struct {
	CompanyName string `json:"company_name"`
	EndDate     int64  `json:"end_date"`
}

// ModuleBranch identifies a review scope a user is core for.
type ModuleBranch struct {
	Module string `json:"module"`
	Branch string `json:"branch"`
}

// User is the canonical identity profile of a contributor.
type User struct {
	// Seq is stamped by the store on first persist and is never reused.
	Seq       int               `json:"seq,omitempty"`
	UserID    string            `json:"user_id"`
	LdapID    string            `json:"ldap_id,omitempty"`
	UserName  string            `json:"user_name,omitempty"`
	Emails    []string          `json:"emails"`
	Companies []CompanyInterval `json:"companies"`
	Core      []ModuleBranch    `json:"core,omitempty"`
}

// Release is one entry of the immutable release calendar.
type Release struct {
	ReleaseName string `json:"release_name"`
	EndDate     int64  `json:"end_date"`
}

// Repo is one entry of the module registry input.
type Repo struct {
	Module  string   `json:"module" yaml:"module"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
}
