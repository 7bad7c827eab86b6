package record

import "sort"

// HasEmail reports whether the profile already carries the given email.
func (u *User) HasEmail(email string) bool {
	for _, e := range u.Emails {
		if e == email {
			return true
		}
	}

	return false
}

// SortCore orders the core set deterministically in place.
func SortCore(core []ModuleBranch) {
	sort.Slice(core, func(i, j int) bool {
		if core[i].Module != core[j].Module {
			return core[i].Module < core[j].Module
		}

		return core[i].Branch < core[j].Branch
	})
}

// EqualCoreSets compares two core sets ignoring order.
func EqualCoreSets(a, b []ModuleBranch) bool {
	if len(a) != len(b) {
		return false
	}

	seen := make(map[ModuleBranch]struct{}, len(a))
	for _, mb := range a {
		seen[mb] = struct{}{}
	}

	for _, mb := range b {
		if _, ok := seen[mb]; !ok {
			return false
		}
	}

	return true
}
