// Package filter is the consumer-facing lookup client over a generated
// dataset. It answers the category of an email domain by exact match, with
// business as the fallback for domains no source list claims.
package filter

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"emaildomains/pkg/domain"
	"emaildomains/pkg/serrors"
)

// Filter holds a loaded dataset snapshot and answers categorization queries.
// It is immutable after construction and safe for concurrent use.
type Filter struct {
	dataset domain.Dataset
}

// NewFromDataset wraps an in-memory dataset, typically fresh from the
// aggregation engine.
func NewFromDataset(dataset domain.Dataset) *Filter {
	return &Filter{dataset: dataset}
}

// Load reads a combined dataset document (email_domains.json) from disk.
func Load(path string) (*Filter, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrNotFound, err, "could not read dataset %q", path)
	}

	var doc struct {
		Domains struct {
			Disposable   []string `json:"disposable"`
			Free         []string `json:"free"`
			PaidPersonal []string `json:"paid_personal"`
		} `json:"domains"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("could not parse dataset %q: %w", path, err)
	}

	return NewFromDataset(domain.Dataset{
		Disposable:   domain.NewDomainSet(doc.Domains.Disposable...),
		Free:         domain.NewDomainSet(doc.Domains.Free...),
		PaidPersonal: domain.NewDomainSet(doc.Domains.PaidPersonal...),
	}), nil
}

// Categorize returns the category of an email domain. Matching is exact after
// lowercasing; subdomains of a listed domain do not match.
func (f *Filter) Categorize(d string) domain.Category {
	return f.dataset.Categorize(strings.ToLower(strings.TrimSpace(d)))
}

// IsBusiness reports whether the address is likely from a business domain,
// i.e. its domain is absent from every bucket. Malformed addresses are not
// business.
func (f *Filter) IsBusiness(email string) bool {
	d, err := emailDomain(email)
	if err != nil {
		return false
	}

	return f.Categorize(d) == domain.CategoryBusiness
}

// Policy selects which categories an email filter should block.
type Policy struct {
	BlockDisposable   bool
	BlockFree         bool
	BlockPaidPersonal bool
}

// ShouldBlock applies the policy to an email address and returns the decision
// together with a human-readable reason. Addresses without a parseable domain
// are always blocked.
func (f *Filter) ShouldBlock(email string, p Policy) (bool, string) {
	d, err := emailDomain(email)
	if err != nil {
		return true, "invalid email format"
	}

	category := f.Categorize(d)
	switch {
	case category == domain.CategoryDisposable && p.BlockDisposable:
		return true, fmt.Sprintf("disposable email domain: %s", d)
	case category == domain.CategoryFree && p.BlockFree:
		return true, fmt.Sprintf("free email provider: %s", d)
	case category == domain.CategoryPaidPersonal && p.BlockPaidPersonal:
		return true, fmt.Sprintf("paid personal email provider: %s", d)
	default:
		return false, fmt.Sprintf("allowed email domain: %s (%s)", d, category)
	}
}

func emailDomain(email string) (string, error) {
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return "", fmt.Errorf("no domain part in %q", email)
	}

	return email[at+1:], nil
}
