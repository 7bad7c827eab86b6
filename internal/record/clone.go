package record

import "slices"

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	c.ChangeID = slices.Clone(r.ChangeID)
	c.BlueprintIDs = slices.Clone(r.BlueprintIDs)

	return &c
}

// Clone returns a deep copy of the user profile.
func (u *User) Clone() *User {
	c := *u
	c.Emails = slices.Clone(u.Emails)
	c.Companies = slices.Clone(u.Companies)
	c.Core = slices.Clone(u.Core)

	return &c
}
