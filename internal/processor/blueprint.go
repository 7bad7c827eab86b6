package processor

import (
	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

// processBlueprint always emits a drafted record attributed to the drafter,
// or the owner when no drafter is named. A completion record follows only
// when the blueprint is both assigned and completed.
func (p *Processor) processBlueprint(blueprint *events.Blueprint) ([]*record.Record, error) {
	author := blueprint.Drafter
	if author == "" {
		author = blueprint.Owner
	}

	drafted := &record.Record{
		Type:       record.TypeBlueprintDrafted,
		PrimaryKey: "bpd:" + blueprint.ID,
		ID:         blueprint.ID,
		Name:       blueprint.Name,
		Module:     blueprint.Module,
		LdapID:     author,
		Date:       blueprint.DateCreated,
	}

	if err := p.resolver.Apply(drafted); err != nil {
		return nil, err
	}

	out := []*record.Record{drafted}

	if blueprint.Assignee != "" && blueprint.DateCompleted != 0 {
		completed := &record.Record{
			Type:       record.TypeBlueprintCompleted,
			PrimaryKey: "bpc:" + blueprint.ID,
			ID:         blueprint.ID,
			Name:       blueprint.Name,
			Module:     blueprint.Module,
			LdapID:     blueprint.Assignee,
			Date:       blueprint.DateCompleted,
		}

		if err := p.resolver.Apply(completed); err != nil {
			return nil, err
		}

		out = append(out, completed)
	}

	return out, nil
}
