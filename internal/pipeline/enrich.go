package pipeline

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/yobot/leadflow/internal/model"
	"github.com/yobot/leadflow/pkg/apollo"
)

// enrich attempts a people-search lookup and merges any result into the
// lead in place. Missing credential, no match, and lookup errors all yield
// a zero Enrichment; enrichment never fails the pipeline.
func (p *Pipeline) enrich(ctx context.Context, lead *model.Lead) model.Enrichment {
	if p.apollo == nil {
		zap.L().Debug("pipeline: enrichment not configured, skipping")
		return model.Enrichment{}
	}

	person, err := p.apollo.MatchPerson(ctx, apollo.MatchRequest{
		FirstName: lead.FirstName,
		LastName:  lead.LastName,
		Domain:    normalizeDomain(lead.Domain),
	})
	if err != nil {
		zap.L().Warn("pipeline: enrichment lookup failed, continuing without",
			zap.String("subject", lead.Subject()),
			zap.Error(err),
		)
		return model.Enrichment{}
	}
	if person == nil {
		return model.Enrichment{}
	}

	enr := model.Enrichment{
		Email:      person.Email,
		Phone:      person.Phone,
		Title:      person.Title,
		ProfileURL: person.LinkedInURL,
	}
	lead.Merge(enr)
	return enr
}

// normalizeDomain reduces a website value to a bare hostname: the search
// service rejects values carrying a scheme or path.
func normalizeDomain(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimPrefix(d, "https://")
	d = strings.TrimPrefix(d, "http://")
	d = strings.TrimPrefix(d, "www.")
	if i := strings.IndexByte(d, '/'); i >= 0 {
		d = d[:i]
	}
	return d
}
