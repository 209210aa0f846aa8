package services

import (
	"context"

	"commentlottery/internal/models"
)

// Extractor accumulates the distinct authors of the comments it is fed.
type Extractor struct {
	participants *models.ParticipantSet
	total        int
}

// NewExtractor creates an empty Extractor.
func NewExtractor() *Extractor {
	return &Extractor{participants: models.NewParticipantSet()}
}

// Consume records every comment of page. Duplicated authors count towards
// the raw total but are stored once.
func (e *Extractor) Consume(page models.PageResult) {
	for _, c := range page.Comments {
		e.participants.Add(c.AuthorName)
		e.total++
	}
}

// Participants returns the distinct author set collected so far.
func (e *Extractor) Participants() *models.ParticipantSet { return e.participants }

// Total returns the number of raw comments consumed.
func (e *Extractor) Total() int { return e.total }

// Extract drives p to the end and returns the distinct participants and the
// raw comment count. If pagination aborts no set is returned.
func Extract(ctx context.Context, p *Paginator) (*models.ParticipantSet, int, error) {
	e := NewExtractor()
	for {
		page, ok, err := p.Next(ctx)
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return e.Participants(), e.Total(), nil
		}
		e.Consume(page)
	}
}
