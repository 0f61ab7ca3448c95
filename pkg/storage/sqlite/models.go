package sqlite

import (
	"fmt"
	"time"

	"emaildomains/pkg/domain"

	"github.com/google/uuid"
)

type SqRun struct {
	ID           string    `db:"id"`
	GeneratedAt  time.Time `db:"generated_at"`
	TotalDomains int       `db:"total_domains"`
	Disposable   int       `db:"disposable"`
	Free         int       `db:"free"`
	PaidPersonal int       `db:"paid_personal"`
	CreatedAt    time.Time `db:"created_at" goqu:"skipinsert"`
}

func (r *SqRun) ToDomain() (*domain.Run, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("could not parse run id: %w", err)
	}

	return &domain.Run{
		ID:           domain.RunID(id),
		GeneratedAt:  r.GeneratedAt,
		TotalDomains: r.TotalDomains,
		Disposable:   r.Disposable,
		Free:         r.Free,
		PaidPersonal: r.PaidPersonal,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func (r *SqRun) FromDomain(run domain.Run) {
	*r = SqRun{
		ID:           run.ID.String(),
		GeneratedAt:  run.GeneratedAt,
		TotalDomains: run.TotalDomains,
		Disposable:   run.Disposable,
		Free:         run.Free,
		PaidPersonal: run.PaidPersonal,
	}
}

type SqRunSource struct {
	RunID    string `db:"run_id"`
	SourceID string `db:"source_id"`
	Category string `db:"category"`
	Raw      int    `db:"raw"`
	Unique   int    `db:"unique_contribution"`
	Overlap  int    `db:"overlap"`
	Invalid  int    `db:"invalid"`
}

func (s *SqRunSource) ToDomain() domain.SourceStats {
	return domain.SourceStats{
		SourceID: s.SourceID,
		Category: domain.Category(s.Category),
		Raw:      s.Raw,
		Unique:   s.Unique,
		Overlap:  s.Overlap,
		Invalid:  s.Invalid,
	}
}

func runSourcesFromDomain(runID domain.RunID, stats []domain.SourceStats) []SqRunSource {
	out := make([]SqRunSource, 0, len(stats))
	for _, s := range stats {
		out = append(out, SqRunSource{
			RunID:    runID.String(),
			SourceID: s.SourceID,
			Category: string(s.Category),
			Raw:      s.Raw,
			Unique:   s.Unique,
			Overlap:  s.Overlap,
			Invalid:  s.Invalid,
		})
	}

	return out
}
