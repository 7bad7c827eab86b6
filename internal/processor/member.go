package processor

import (
	"log/slog"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/prism/internal/affiliation"
	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

// memberDateLayout is the join-date format used by foundation member rolls.
const memberDateLayout = "January 2, 2006"

// processMember maps a foundation member profile to a member record. The
// self-reported company is authoritative: it is normalized against the
// company registry and then written through to the resolved user, replacing
// any affiliation history derived from other sources.
func (p *Processor) processMember(member *events.Member) ([]*record.Record, error) {
	date, dateErr := parseMemberDate(member.DateJoined)
	if dateErr != nil {
		p.logger.Debug("skipping member with malformed join date",
			slog.String("member_id", member.MemberID),
			slog.String("date_joined", member.DateJoined))

		return nil, nil
	}

	userKey := "member:" + member.MemberID

	email := strings.ToLower(member.Email)
	if email == "" {
		email = userKey
	}

	company := p.index.CompanyByName(affiliation.NormalizeCompanyName(member.CompanyDraft))
	if company == "" {
		company = member.CompanyDraft
	}

	rec := &record.Record{
		Type:        record.TypeMember,
		PrimaryKey:  userKey,
		MemberID:    member.MemberID,
		Date:        date,
		AuthorName:  member.MemberName,
		AuthorEmail: email,
		Country:     member.Country,
		Module:      record.ModuleUnknown,
	}

	if err := p.resolver.Apply(rec); err != nil {
		return nil, err
	}

	rec.CompanyName = company

	userID := rec.UserID
	if userID == "" {
		userID = userKey
	}

	user, loadErr := p.store.LoadUser(userID)
	if loadErr != nil {
		return nil, loadErr
	}

	if user == nil {
		user = &record.User{UserID: userID, Emails: []string{}}
	}

	user.UserName = rec.AuthorName
	user.Companies = []record.CompanyInterval{{CompanyName: company, EndDate: 0}}

	if err := p.store.StoreUser(user); err != nil {
		return nil, err
	}

	return []*record.Record{rec}, nil
}

func parseMemberDate(joined string) (int64, error) {
	parsed, err := time.Parse(memberDateLayout, joined)
	if err != nil {
		return 0, err
	}

	return parsed.Unix(), nil
}
