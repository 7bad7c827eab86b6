package processor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Sumatoshi-tech/prism/internal/events"
	"github.com/Sumatoshi-tech/prism/internal/record"
)

// processReview fans a review event out into a review record, one patch
// record per patch set and one mark record per Code-Review or Workflow
// approval. Participants without both an email and a username are dropped
// without comment: the review itself if the owner is incomplete, otherwise
// just the affected patch or mark.
func (p *Processor) processReview(review *events.Review) ([]*record.Record, error) {
	if !review.Owner.Valid() {
		return nil, nil
	}

	rec, err := p.makeReviewRecord(review)
	if err != nil {
		return nil, err
	}

	out := []*record.Record{rec}

	for _, patch := range review.PatchSets {
		if !patch.Uploader.Valid() {
			continue
		}

		patchRec, patchErr := p.makePatchRecord(review, patch)
		if patchErr != nil {
			return nil, patchErr
		}

		out = append(out, patchRec)

		for _, approval := range patch.Approvals {
			if approval.Kind != KindCodeReview && approval.Kind != KindWorkflow {
				continue
			}

			if approval.By == nil || !approval.By.Valid() {
				continue
			}

			markRec, markErr := p.makeMarkRecord(review, patch, approval)
			if markErr != nil {
				return nil, markErr
			}

			out = append(out, markRec)
		}
	}

	return out, nil
}

// makeReviewRecord flattens the owner into the record. The value is the
// minimum approval on the last patch set; updated_on is the newest approval
// grant time on that patch, its creation time when it carries no approvals,
// or the review creation time when there are no patch sets at all.
func (p *Processor) makeReviewRecord(review *events.Review) (*record.Record, error) {
	rec := &record.Record{
		Type:        record.TypeReview,
		PrimaryKey:  review.ID,
		ID:          review.ID,
		Date:        review.CreatedOn,
		LdapID:      review.Owner.Username,
		AuthorName:  review.Owner.Name,
		AuthorEmail: strings.ToLower(review.Owner.Email),
		Subject:     review.Subject,
		Status:      review.Status,
		Module:      review.Module,
		Branch:      review.Branch,
		LastUpdated: review.LastUpdated,
		UpdatedOn:   review.CreatedOn,
	}

	if len(review.PatchSets) > 0 {
		last := review.PatchSets[len(review.PatchSets)-1]

		if len(last.Approvals) > 0 {
			value := int(last.Approvals[0].Value)
			updated := last.Approvals[0].GrantedOn

			for _, approval := range last.Approvals[1:] {
				value = min(value, int(approval.Value))
				updated = max(updated, approval.GrantedOn)
			}

			rec.Value = value
			rec.UpdatedOn = updated
		} else {
			rec.UpdatedOn = last.CreatedOn
		}
	}

	if err := p.resolver.Apply(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (p *Processor) makePatchRecord(review *events.Review, patch events.PatchSet) (*record.Record, error) {
	rec := &record.Record{
		Type:        record.TypePatch,
		PrimaryKey:  fmt.Sprintf("%s:%d", review.ID, patch.Number),
		Number:      patch.Number,
		Date:        patch.CreatedOn,
		LdapID:      patch.Uploader.Username,
		AuthorName:  patch.Uploader.Name,
		AuthorEmail: strings.ToLower(patch.Uploader.Email),
		Module:      review.Module,
		Branch:      review.Branch,
		ReviewID:    review.ID,
	}

	if err := p.resolver.Apply(rec); err != nil {
		return nil, err
	}

	return rec, nil
}

func (p *Processor) makeMarkRecord(review *events.Review, patch events.PatchSet, approval events.Approval) (*record.Record, error) {
	rec := &record.Record{
		Type:        record.TypeMark,
		PrimaryKey:  review.ID + strconv.FormatInt(approval.GrantedOn, 10) + approval.Kind,
		Kind:        approval.Kind,
		Value:       int(approval.Value),
		Date:        approval.GrantedOn,
		LdapID:      approval.By.Username,
		AuthorName:  approval.By.Name,
		AuthorEmail: strings.ToLower(approval.By.Email),
		Module:      review.Module,
		Branch:      review.Branch,
		ReviewID:    review.ID,
		Patch:       patch.Number,
	}

	if err := p.resolver.Apply(rec); err != nil {
		return nil, err
	}

	return rec, nil
}
