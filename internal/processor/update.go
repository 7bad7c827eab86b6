package processor

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/Sumatoshi-tech/prism/internal/record"
	"github.com/Sumatoshi-tech/prism/internal/storage"
)

// DefaultCoreWindow is how far back a +2/-2 review vote still counts
// towards core-contributor status.
const DefaultCoreWindow = 90 * 24 * time.Hour

// Update recomputes derived record attributes in a fixed pass order: user
// info, release overrides, review sequence numbers, blueprint mentions,
// commit merge dates, core contributors and finally review disagreements.
// Disagreement detection reads the core sets written one pass earlier, so
// the order is load-bearing. Each pass re-reads the full record set and
// persists only the records it changed.
func (p *Processor) Update(ctx context.Context, releaseIndex map[string]string) error {
	if err := p.runPass(ctx, "user_info", p.refreshUserInfo()); err != nil {
		return err
	}

	if len(releaseIndex) > 0 {
		if err := p.runPass(ctx, "releases", p.reassignReleases(releaseIndex)); err != nil {
			return err
		}
	}

	if err := p.runPass(ctx, "review_numbers", p.numberReviews()); err != nil {
		return err
	}

	if err := p.runPass(ctx, "blueprint_mentions", p.accountBlueprintMentions()); err != nil {
		return err
	}

	if err := p.runPass(ctx, "merge_dates", p.backfillMergeDates()); err != nil {
		return err
	}

	if err := p.determineCoreContributors(ctx); err != nil {
		return err
	}

	return p.runPass(ctx, "disagreements", p.flagDisagreements())
}

// runPass drains one pass into the store, counting changed records.
func (p *Processor) runPass(ctx context.Context, name string, changes storage.RecordSeq) error {
	started := time.Now()
	changed := 0

	counted := func(yield func(*record.Record, error) bool) {
		for rec, err := range changes {
			if err == nil {
				changed++
			}

			if !yield(rec, err) {
				return
			}
		}
	}

	if err := p.store.SetRecords(counted); err != nil {
		return err
	}

	elapsed := time.Since(started)
	p.metrics.PassCompleted(ctx, name, changed, elapsed)
	p.logger.Info("update pass finished",
		slog.String("pass", name),
		slog.Int("changed", changed),
		slog.Duration("elapsed", elapsed))

	return nil
}

// refreshUserInfo re-resolves identity and affiliation on every record and
// emits those whose user id, author name or company changed.
func (p *Processor) refreshUserInfo() storage.RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			prevCompany := rec.CompanyName
			prevUser := rec.UserID
			prevName := rec.AuthorName

			if applyErr := p.resolver.Apply(rec); applyErr != nil {
				yield(nil, applyErr)

				return
			}

			if rec.CompanyName == prevCompany && rec.UserID == prevUser && rec.AuthorName == prevName {
				continue
			}

			p.logger.Debug("user info changed in record",
				slog.String("primary_key", rec.PrimaryKey),
				slog.String("user_id", rec.UserID),
				slog.String("company", rec.CompanyName))

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// reassignReleases moves records onto the release named by the override
// index, falling back to the calendar for records the index does not name.
func (p *Processor) reassignReleases(releaseIndex map[string]string) storage.RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			release, overridden := releaseIndex[rec.PrimaryKey]
			if !overridden {
				release = p.calendar.Release(rec.Date)
			}

			if rec.Release == release {
				continue
			}

			rec.Release = release

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// numberReviews assigns each review its 1-based rank in the owner's reviews
// ordered by creation date, and emits reviews whose rank changed.
func (p *Processor) numberReviews() storage.RecordSeq {
	type reviewRef struct {
		id   string
		date int64
	}

	return func(yield func(*record.Record, error) bool) {
		perOwner := make(map[string][]reviewRef)

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			if rec.Type != record.TypeReview {
				continue
			}

			perOwner[rec.LdapID] = append(perOwner[rec.LdapID], reviewRef{id: rec.ID, date: rec.Date})
		}

		numbers := make(map[string]int)

		for _, reviews := range perOwner {
			sort.SliceStable(reviews, func(i, j int) bool { return reviews[i].date < reviews[j].date })

			for i, review := range reviews {
				numbers[review.id] = i + 1
			}
		}

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			if rec.Type != record.TypeReview || rec.ReviewNumber == numbers[rec.ID] {
				continue
			}

			rec.ReviewNumber = numbers[rec.ID]

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// blueprintStats accumulates mention tallies for one blueprint.
type blueprintStats struct {
	count int
	date  int64
}

// accountBlueprintMentions tallies blueprint mentions across all records,
// strips references to blueprints that have no bpd or bpc record, and
// stamps drafted and completed records with the mention count and the date
// of the latest mention.
func (p *Processor) accountBlueprintMentions() storage.RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		mentioned := make(map[string]*blueprintStats)
		valid := make(map[string]struct{})

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			for _, bp := range rec.BlueprintIDs {
				stats, seen := mentioned[bp]
				if !seen {
					mentioned[bp] = &blueprintStats{count: 1, date: rec.Date}

					continue
				}

				stats.count++
				stats.date = max(stats.date, rec.Date)
			}

			if rec.Type == record.TypeBlueprintDrafted || rec.Type == record.TypeBlueprintCompleted {
				valid[rec.ID] = struct{}{}
			}
		}

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			changed := false

			if len(rec.BlueprintIDs) > 0 {
				kept := rec.BlueprintIDs[:0:0]

				for _, bp := range rec.BlueprintIDs {
					if _, ok := valid[bp]; ok {
						kept = append(kept, bp)

						continue
					}

					p.logger.Debug("removed dangling blueprint reference",
						slog.String("primary_key", rec.PrimaryKey),
						slog.String("blueprint", bp))
					changed = true
				}

				rec.BlueprintIDs = kept
			}

			if rec.Type == record.TypeBlueprintDrafted || rec.Type == record.TypeBlueprintCompleted {
				stats := blueprintStats{}
				if found, ok := mentioned[rec.ID]; ok {
					stats = *found
				}

				if rec.MentionCount != stats.count || rec.MentionDate != stats.date {
					rec.MentionCount = stats.count
					rec.MentionDate = stats.date
					changed = true
				}
			}

			if changed && !yield(rec, nil) {
				return
			}
		}
	}
}

// backfillMergeDates re-dates commits onto the merge time of their Gerrit
// change. Only commits carrying exactly one change id are touched; zero is
// nothing to match and more than one is ambiguous.
func (p *Processor) backfillMergeDates() storage.RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		mergeDates := make(map[string]int64)

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			if rec.Type == record.TypeReview && rec.Status == "MERGED" {
				mergeDates[rec.ID] = rec.LastUpdated
			}
		}

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			if rec.Type != record.TypeCommit || len(rec.ChangeID) != 1 {
				continue
			}

			merged, ok := mergeDates[rec.ChangeID[0]]
			if !ok || rec.Date == merged {
				continue
			}

			p.logger.Debug("commit re-dated to merge time",
				slog.String("primary_key", rec.PrimaryKey),
				slog.Int64("old_date", rec.Date),
				slog.Int64("new_date", merged))

			rec.Date = merged
			p.restampDate(rec)

			if !yield(rec, nil) {
				return
			}
		}
	}
}

// determineCoreContributors rebuilds each user's core set from recent
// +2/-2 Code-Review marks and stores users whose set changed.
func (p *Processor) determineCoreContributors(ctx context.Context) error {
	started := time.Now()
	cutoff := p.now().Add(-p.coreWindow).Unix()
	coreSets := make(map[string]map[record.ModuleBranch]struct{})

	for rec, err := range p.store.AllRecords() {
		if err != nil {
			return err
		}

		if rec.Type != record.TypeMark || rec.Kind != KindCodeReview {
			continue
		}

		if rec.Date <= cutoff || (rec.Value != 2 && rec.Value != -2) {
			continue
		}

		set, ok := coreSets[rec.UserID]
		if !ok {
			set = make(map[record.ModuleBranch]struct{})
			coreSets[rec.UserID] = set
		}

		set[record.ModuleBranch{Module: rec.Module, Branch: rec.Branch}] = struct{}{}
	}

	changed := 0

	for user, err := range p.store.AllUsers() {
		if err != nil {
			return err
		}

		core := make([]record.ModuleBranch, 0, len(coreSets[user.UserID]))
		for mb := range coreSets[user.UserID] {
			core = append(core, mb)
		}

		record.SortCore(core)

		if record.EqualCoreSets(user.Core, core) {
			continue
		}

		user.Core = core
		if storeErr := p.store.StoreUser(user); storeErr != nil {
			return storeErr
		}

		changed++
	}

	elapsed := time.Since(started)
	p.metrics.PassCompleted(ctx, "core_contributors", changed, elapsed)
	p.logger.Info("update pass finished",
		slog.String("pass", "core_contributors"),
		slog.Int("changed", changed),
		slog.Duration("elapsed", elapsed))

	return nil
}

// coreKey identifies a core contributor within one module branch.
type coreKey struct {
	module string
	branch string
	userID string
}

// reviewMarks holds the Code-Review marks of the current patch of a review.
type reviewMarks struct {
	patchNumber int
	marks       []*record.Record
}

// flagDisagreements walks Code-Review marks in arrival order grouped by
// review. A newer patch supersedes the marks collected so far; marks on
// patches older than the current one are stale and skipped. Each closed
// patch is then scored against the core sets.
func (p *Processor) flagDisagreements() storage.RecordSeq {
	return func(yield func(*record.Record, error) bool) {
		cores := make(map[coreKey]struct{})

		for user, err := range p.store.AllUsers() {
			if err != nil {
				yield(nil, err)

				return
			}

			for _, mb := range user.Core {
				cores[coreKey{module: mb.Module, branch: mb.Branch, userID: user.UserID}] = struct{}{}
			}
		}

		open := make(map[string]*reviewMarks)
		reviewOrder := make([]string, 0)

		for rec, err := range p.store.AllRecords() {
			if err != nil {
				yield(nil, err)

				return
			}

			if rec.Type != record.TypeMark || rec.Kind != KindCodeReview {
				continue
			}

			current, seen := open[rec.ReviewID]
			if !seen {
				current = &reviewMarks{patchNumber: rec.Patch}
				open[rec.ReviewID] = current
				reviewOrder = append(reviewOrder, rec.ReviewID)
			}

			if rec.Patch > current.patchNumber {
				for _, changed := range closePatch(cores, current.marks) {
					if !yield(changed, nil) {
						return
					}
				}

				current.patchNumber = rec.Patch
				current.marks = current.marks[:0]
			} else if rec.Patch < current.patchNumber {
				continue
			}

			current.marks = append(current.marks, rec)
		}

		for _, reviewID := range reviewOrder {
			for _, changed := range closePatch(cores, open[reviewID].marks) {
				if !yield(changed, nil) {
					return
				}
			}
		}
	}
}

// closePatch scores one patch worth of marks. The newest core vote sets the
// baseline; every other mark disagrees when its sign opposes the baseline.
// Patches with fewer than two marks cannot disagree with anything.
func closePatch(cores map[coreKey]struct{}, marks []*record.Record) []*record.Record {
	if len(marks) < 2 {
		return nil
	}

	ordered := make([]*record.Record, len(marks))
	copy(ordered, marks)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date > ordered[j].Date })

	baseline := 0

	var changed []*record.Record

	for _, mark := range ordered {
		if baseline == 0 {
			key := coreKey{module: mark.Module, branch: mark.Branch, userID: mark.UserID}
			if _, ok := cores[key]; ok {
				baseline = mark.Value

				continue
			}
		}

		disagreement := baseline != 0 &&
			((baseline < 0 && mark.Value > 0) || (baseline > 0 && mark.Value < 0))

		if mark.Disagreement != disagreement {
			mark.Disagreement = disagreement
			changed = append(changed, mark)
		}
	}

	return changed
}
