// Package aggregate merges per-source domain sets into category buckets,
// resolving cross-category conflicts by precedence, suppressing allowlisted
// domains and accounting each source's unique contribution.
package aggregate

import (
	"sort"

	"emaildomains/pkg/domain"
	"emaildomains/pkg/serrors"
)

// SourceSet pairs a source descriptor with its normalized contribution.
type SourceSet struct {
	Source domain.Source
	Set    domain.DomainSet
	// Invalid is the number of lines normalization rejected for this source.
	Invalid int
}

// Input carries everything one aggregation needs. Sources are expected to be
// validated already; an unknown category here is a programming error.
type Input struct {
	Sources []SourceSet
	// Allowlist domains are exempt from the disposable bucket regardless of
	// source classification.
	Allowlist domain.DomainSet
}

// Result is the engine's final output: mutually exclusive category buckets and
// the per-source statistics table, sorted by source ID.
type Result struct {
	Dataset domain.Dataset
	Stats   []domain.SourceStats
}

// Aggregate computes the final dataset.
//
// The steps are fixed:
//  1. Union the normalized sets of every source per category.
//  2. Resolve cross-category conflicts: a domain claimed by several categories
//     is assigned to the highest-precedence one only.
//  3. Suppress allowlisted domains: the allowlist removes a domain's
//     disposable claim entirely, so it lands in the best remaining claimed
//     category, or nowhere when only disposable sources asserted it. A domain
//     is never promoted into a category no source asserted.
//  4. Attribute statistics per source against the final buckets.
//
// The result depends only on the input sets; fetch order and scheduling leave
// no trace, so identical inputs reproduce byte-identical buckets and stats.
func Aggregate(in Input) (Result, error) {
	raw, err := rawUnions(in.Sources)
	if err != nil {
		return Result{}, err
	}

	dataset := domain.NewDataset()
	for _, category := range domain.SourceCategories {
		rawSet, err := raw.Bucket(category)
		if err != nil {
			return Result{}, serrors.Wrap(serrors.ErrConfig, err, "could not resolve bucket")
		}
		finalSet, err := dataset.Bucket(category)
		if err != nil {
			return Result{}, serrors.Wrap(serrors.ErrConfig, err, "could not resolve bucket")
		}

		for d := range rawSet {
			winner, err := resolve(d, raw, in.Allowlist)
			if err != nil {
				return Result{}, err
			}
			if winner == category {
				finalSet.Add(d)
			}
		}
	}

	stats, err := attribute(in.Sources, dataset)
	if err != nil {
		return Result{}, err
	}

	return Result{Dataset: dataset, Stats: stats}, nil
}

// rawUnions builds the per-category union of all source sets. Domains may
// appear in several unions at this stage; that is the conflict precedence
// resolves.
func rawUnions(sources []SourceSet) (domain.Dataset, error) {
	raw := domain.NewDataset()
	for _, src := range sources {
		bucket, err := raw.Bucket(src.Source.Category)
		if err != nil {
			return domain.Dataset{}, serrors.Wrap(serrors.ErrConfig, err,
				"source %q has an unusable category", src.Source.ID)
		}
		for d := range src.Set {
			bucket.Add(d)
		}
	}

	return raw, nil
}

// resolve picks the final category for one domain, or CategoryBusiness when
// every claim is suppressed. An allowlisted domain loses its disposable claim
// before precedence is applied.
func resolve(d string, raw domain.Dataset, allowlist domain.DomainSet) (domain.Category, error) {
	winner := domain.CategoryBusiness
	best := 0

	for _, category := range domain.SourceCategories {
		if category == domain.CategoryDisposable && allowlist.Has(d) {
			continue
		}
		bucket, err := raw.Bucket(category)
		if err != nil {
			return "", serrors.Wrap(serrors.ErrConfig, err, "could not resolve bucket")
		}
		if !bucket.Has(d) {
			continue
		}
		rank, err := category.Precedence()
		if err != nil {
			return "", serrors.Wrap(serrors.ErrConfig, err, "could not rank category")
		}
		if rank > best {
			winner, best = category, rank
		}
	}

	return winner, nil
}

// attribute computes the per-source statistics table against the final
// dataset. A domain counts as a source's unique contribution when it survived
// into the source's category and no other source of that category listed it.
func attribute(sources []SourceSet, dataset domain.Dataset) ([]domain.SourceStats, error) {
	// contributor count per category per final domain
	contributors := map[domain.Category]map[string]int{}
	for _, category := range domain.SourceCategories {
		contributors[category] = map[string]int{}
	}
	for _, src := range sources {
		finalSet, err := dataset.Bucket(src.Source.Category)
		if err != nil {
			return nil, serrors.Wrap(serrors.ErrConfig, err, "source %q has an unusable category", src.Source.ID)
		}
		counts := contributors[src.Source.Category]
		for d := range src.Set {
			if finalSet.Has(d) {
				counts[d]++
			}
		}
	}

	stats := make([]domain.SourceStats, 0, len(sources))
	for _, src := range sources {
		counts := contributors[src.Source.Category]
		unique := 0
		for d := range src.Set {
			if counts[d] == 1 {
				unique++
			}
		}

		stats = append(stats, domain.SourceStats{
			SourceID: src.Source.ID,
			Category: src.Source.Category,
			Raw:      len(src.Set),
			Unique:   unique,
			Overlap:  len(src.Set) - unique,
			Invalid:  src.Invalid,
		})
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].SourceID < stats[j].SourceID })

	return stats, nil
}
