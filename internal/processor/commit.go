package processor

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

// processCommit fans a commit event out into one commit record per author.
// Without coauthors the commit maps to a single record keyed by the commit
// hash. With coauthors the primary author joins the coauthor list and every
// author gets a full copy of the commit keyed by hash plus email, so that
// each contributor is credited with the change.
func (p *Processor) processCommit(commit *events.Commit) ([]*record.Record, error) {
	base := &record.Record{
		Type:         record.TypeCommit,
		PrimaryKey:   commit.CommitID,
		CommitID:     commit.CommitID,
		Date:         commit.Date,
		CommitDate:   commit.Date,
		AuthorName:   commit.AuthorName,
		AuthorEmail:  strings.ToLower(commit.AuthorEmail),
		Subject:      commit.Subject,
		Module:       commit.Module,
		Branch:       commit.Branch,
		Release:      commit.Release,
		LinesAdded:   commit.LinesAdded,
		LinesDeleted: commit.LinesDeleted,
		Loc:          commit.LinesAdded + commit.LinesDeleted,
		ChangeID:     slices.Clone(commit.ChangeID),
	}

	if len(commit.Coauthors) == 0 {
		if err := p.resolver.Apply(base); err != nil {
			return nil, err
		}

		return []*record.Record{base}, nil
	}

	authors := slices.Clone(commit.Coauthors)
	authors = append(authors, events.Coauthor{
		AuthorName:  base.AuthorName,
		AuthorEmail: base.AuthorEmail,
	})

	out := make([]*record.Record, 0, len(authors))

	for _, author := range authors {
		rec := base.Clone()
		rec.AuthorName = author.AuthorName
		rec.AuthorEmail = strings.ToLower(author.AuthorEmail)
		rec.PrimaryKey = base.PrimaryKey + rec.AuthorEmail

		if err := p.resolver.Apply(rec); err != nil {
			return nil, err
		}

		out = append(out, rec)
	}

	return out, nil
}
