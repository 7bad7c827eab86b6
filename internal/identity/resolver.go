// Package identity resolves raw author identities (directory id, email,
// display name) into canonical user profiles, merging duplicate profiles
// that were created through different keys.
package identity

import (
	"log/slog"
	"sort"

	"github.com/Sumatoshi-tech/prism/internal/affiliation"
	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

// Resolver looks up, merges and persists user profiles.
type Resolver struct {
	store  storage.Store
	index  *affiliation.Index
	logger *slog.Logger
}

// NewResolver creates a resolver over the given store and domain index.
func NewResolver(store storage.Store, index *affiliation.Index, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, index: index, logger: logger}
}

// Resolve returns the authoritative user for a raw identity triple,
// creating or merging persisted profiles as needed. The store may hold two
// distinct documents for the same person when they were created via
// different keys on different runs; those are converged here.
func (r *Resolver) Resolve(ldapID, email, name string) (*record.User, error) {
	byEmail, err := r.store.LoadUser(email)
	if err != nil {
		return nil, err
	}

	byLdap, err := r.store.LoadUser(ldapID)
	if err != nil {
		return nil, err
	}

	if byEmail != nil && byLdap != nil && byEmail.Seq == byLdap.Seq && byEmail.Seq != 0 {
		// Both keys already resolve to the same persisted identity.
		return byEmail, nil
	}

	fresh := r.newUser(ldapID, email, name)

	var user *record.User

	if byEmail != nil || byLdap != nil {
		user, err = r.merge(byEmail, byLdap, fresh)
		if err != nil {
			return nil, err
		}
	} else {
		user = fresh
		r.logger.Debug("created new user", slog.String("user_id", user.UserID))
	}

	err = r.store.StoreUser(user)
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Apply resolves the record's author identity and stamps the identity and
// company fields from the authoritative profile. A record already resolved
// to the robots company keeps it regardless of its email domain.
func (r *Resolver) Apply(rec *record.Record) error {
	user, err := r.Resolve(rec.LdapID, rec.AuthorEmail, rec.AuthorName)
	if err != nil {
		return err
	}

	rec.UserID = user.UserID
	rec.LdapID = user.LdapID

	if user.UserName != "" {
		rec.AuthorName = user.UserName
	}

	company := affiliation.CompanyAt(user.Companies, rec.Date)
	if company != record.CompanyRobots {
		if byEmail := r.index.CompanyByEmail(rec.AuthorEmail); byEmail != "" {
			company = byEmail
		}
	}

	rec.CompanyName = company

	return nil
}

func (r *Resolver) newUser(ldapID, email, name string) *record.User {
	company := r.index.CompanyByEmail(email)
	if company == "" {
		company = record.CompanyIndependent
	}

	userID := ldapID
	if userID == "" {
		userID = email
	}

	user := &record.User{
		UserID:    userID,
		LdapID:    ldapID,
		UserName:  name,
		Emails:    []string{},
		Companies: []record.CompanyInterval{{CompanyName: company, EndDate: 0}},
	}

	if email != "" {
		user.Emails = []string{email}
	}

	return user
}

// merge folds up to three candidate profiles into one: the email-keyed
// document, the directory-id-keyed document, and the freshly constructed
// candidate, in that priority order. When both persisted documents carry a
// sequence number the directory-id-keyed one is deleted afterwards, so the
// identity does not stay duplicated forever.
func (r *Resolver) merge(byEmail, byLdap, fresh *record.User) (*record.User, error) {
	persistedE := byEmail != nil && byEmail.Seq != 0
	persistedL := byLdap != nil && byLdap.Seq != 0

	if byEmail == nil {
		byEmail = &record.User{}
	}

	if byLdap == nil {
		byLdap = &record.User{}
	}

	candidates := []*record.User{byEmail, byLdap, fresh}
	user := &record.User{}

	for _, c := range candidates {
		if user.Seq == 0 {
			user.Seq = c.Seq
		}

		if user.UserName == "" {
			user.UserName = c.UserName
		}

		if user.UserID == "" {
			user.UserID = c.UserID
		}

		if user.LdapID == "" {
			user.LdapID = c.LdapID
		}

		if len(user.Companies) == 0 {
			user.Companies = c.Companies
		}
	}

	if user.LdapID != "" && user.UserID != user.LdapID {
		user.UserID = user.LdapID
	}

	user.Emails = unionEmails(candidates)
	user.Core = unionCore(candidates)

	r.refreshAffiliation(user)

	if persistedE && persistedL {
		r.logger.Debug("deleting duplicate user profile",
			slog.String("user_id", byLdap.UserID), slog.Int("seq", byLdap.Seq))

		err := r.store.DeleteUser(byLdap)
		if err != nil {
			return nil, err
		}
	}

	return user, nil
}

// refreshAffiliation replaces the single "*independent" placeholder
// interval with a real company inferred from any of the user's emails.
// Profiles with more than one interval carry real employment history and
// are deliberately left alone.
func (r *Resolver) refreshAffiliation(user *record.User) {
	for _, email := range user.Emails {
		company := r.index.CompanyByEmail(email)
		if company == "" {
			continue
		}

		if len(user.Companies) == 1 && user.Companies[0].CompanyName == record.CompanyIndependent {
			r.logger.Debug("updating user affiliation",
				slog.String("user_id", user.UserID), slog.String("company", company))

			user.Companies[0].CompanyName = company

			break
		}
	}
}

func unionEmails(candidates []*record.User) []string {
	merged := record.User{Emails: []string{}}

	for _, c := range candidates {
		for _, email := range c.Emails {
			if !merged.HasEmail(email) {
				merged.Emails = append(merged.Emails, email)
			}
		}
	}

	sort.Strings(merged.Emails)

	return merged.Emails
}

func unionCore(candidates []*record.User) []record.ModuleBranch {
	seen := make(map[record.ModuleBranch]struct{})

	for _, c := range candidates {
		for _, mb := range c.Core {
			seen[mb] = struct{}{}
		}
	}

	if len(seen) == 0 {
		return nil
	}

	core := make([]record.ModuleBranch, 0, len(seen))
	for mb := range seen {
		core = append(core, mb)
	}

	record.SortCore(core)

	return core
}
