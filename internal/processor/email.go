package processor

import (
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

// processEmail maps a mailing-list message to a single email record. The
// module is guessed from the subject line when the event does not name one,
// and the body is kept only for messages that mention blueprints.
func (p *Processor) processEmail(email *events.Email) ([]*record.Record, error) {
	rec := &record.Record{
		Type:         record.TypeEmail,
		PrimaryKey:   email.MessageID,
		MessageID:    email.MessageID,
		Date:         email.Date,
		AuthorName:   email.AuthorName,
		AuthorEmail:  strings.ToLower(email.AuthorEmail),
		Subject:      email.Subject,
		Module:       email.Module,
		BlueprintIDs: slices.Clone(email.BlueprintIDs),
	}

	if err := p.resolver.Apply(rec); err != nil {
		return nil, err
	}

	p.registry.ApplyGuess(rec, email.Subject)

	if len(rec.BlueprintIDs) > 0 {
		rec.Body = email.Body
	}

	return []*record.Record{rec}, nil
}
