package domain

import "fmt"

// Category classifies an email domain by the kind of mailbox provider behind it.
type Category string

const (
	// CategoryDisposable marks domains operated for short-lived or throwaway
	// addresses.
	CategoryDisposable Category = "disposable"
	// CategoryFree marks domains offering free personal mailboxes (consumer
	// webmail).
	CategoryFree Category = "free"
	// CategoryPaidPersonal marks subscription-based personal email services,
	// distinct from free webmail and from corporate domains.
	CategoryPaidPersonal Category = "paid_personal"
	// CategoryBusiness is the fallback for domains absent from every bucket.
	// It is a lookup answer only; no source may be tagged with it.
	CategoryBusiness Category = "business"
)

// SourceCategories lists the categories a source may be tagged with, in
// descending precedence order. When sources disagree on a domain, the
// highest-precedence claim wins: mislabeling a disposable domain as merely
// "free" is the more harmful mistake, and the paid_personal list is a small
// curated source trusted over the bulk free lists.
var SourceCategories = []Category{ //nolint: gochecknoglobals
	CategoryDisposable,
	CategoryPaidPersonal,
	CategoryFree,
}

// ParseCategory converts a registry label into a Category. Only source
// categories are accepted; anything else (including "business") is an error.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryDisposable, CategoryFree, CategoryPaidPersonal:
		return Category(s), nil
	case CategoryBusiness:
		return "", fmt.Errorf("category %q is not assignable to a source", s)
	default:
		return "", fmt.Errorf("unknown category %q", s)
	}
}

// Precedence returns the conflict-resolution rank of a source category; higher
// wins. It returns an error for categories that cannot hold domains.
func (c Category) Precedence() (int, error) {
	switch c {
	case CategoryDisposable:
		return 3, nil
	case CategoryPaidPersonal:
		return 2, nil
	case CategoryFree:
		return 1, nil
	case CategoryBusiness:
		return 0, fmt.Errorf("category %q has no precedence", c)
	default:
		return 0, fmt.Errorf("unknown category %q", c)
	}
}
