package domain

import (
	"fmt"
	"sort"
)

// DomainSet is a set of lowercase domain strings.
type DomainSet map[string]struct{}

// NewDomainSet builds a set from the given domains. Inputs are assumed to be
// normalized already.
func NewDomainSet(domains ...string) DomainSet {
	s := make(DomainSet, len(domains))
	for _, d := range domains {
		s[d] = struct{}{}
	}

	return s
}

// Add inserts a domain into the set.
func (s DomainSet) Add(domain string) { s[domain] = struct{}{} }

// Has reports whether the domain is a member of the set.
func (s DomainSet) Has(domain string) bool {
	_, ok := s[domain]

	return ok
}

// Sorted returns the members in lexicographic order. Sets carry no ordering of
// their own; every serialized representation goes through Sorted to keep
// outputs reproducible.
func (s DomainSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)

	return out
}

// Dataset holds the final category buckets. A domain appears in at most one
// bucket; membership is mutually exclusive after precedence resolution.
type Dataset struct {
	Disposable   DomainSet
	Free         DomainSet
	PaidPersonal DomainSet
}

// NewDataset returns a Dataset with empty buckets.
func NewDataset() Dataset {
	return Dataset{
		Disposable:   DomainSet{},
		Free:         DomainSet{},
		PaidPersonal: DomainSet{},
	}
}

// Bucket returns the set backing the given source category. The category enum
// is fixed; an unknown label is a programming or configuration error.
func (d Dataset) Bucket(c Category) (DomainSet, error) {
	switch c {
	case CategoryDisposable:
		return d.Disposable, nil
	case CategoryFree:
		return d.Free, nil
	case CategoryPaidPersonal:
		return d.PaidPersonal, nil
	case CategoryBusiness:
		return nil, fmt.Errorf("category %q has no bucket", c)
	default:
		return nil, fmt.Errorf("unknown category %q", c)
	}
}

// Categorize answers the consumer lookup contract: the domain's bucket, or
// business when no bucket contains it. Matching is exact; subdomains are not
// considered.
func (d Dataset) Categorize(domain string) Category {
	switch {
	case d.Disposable.Has(domain):
		return CategoryDisposable
	case d.Free.Has(domain):
		return CategoryFree
	case d.PaidPersonal.Has(domain):
		return CategoryPaidPersonal
	default:
		return CategoryBusiness
	}
}

// Total returns the number of domains across all buckets.
func (d Dataset) Total() int {
	return len(d.Disposable) + len(d.Free) + len(d.PaidPersonal)
}
