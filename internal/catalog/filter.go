package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
)

// Filter narrows and orders a product listing. Zero-value fields impose no
// constraint; all set fields compose with logical AND.
type Filter struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
}

func (f Filter) apply(src []Product) []Product {
	out := make([]Product, 0, len(src))
	for _, p := range src {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	f.sortInPlace(out)
	return out
}

func (f Filter) matches(p Product) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) {
			return false
		}
	}
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	return true
}

// sortInPlace orders the filtered list; ties keep their storage order.
// An unknown sort value leaves the list as-is.
func (f Filter) sortInPlace(list []Product) {
	switch f.Sort {
	case SortPriceAsc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price < list[j].Price })
	case SortPriceDesc:
		sort.SliceStable(list, func(i, j int) bool { return list[i].Price > list[j].Price })
	case SortNameAsc:
		c := nameCollator()
		sort.SliceStable(list, func(i, j int) bool { return c.CompareString(list[i].Name, list[j].Name) < 0 })
	case SortNameDesc:
		c := nameCollator()
		sort.SliceStable(list, func(i, j int) bool { return c.CompareString(list[i].Name, list[j].Name) > 0 })
	}
}

// nameCollator is built per sort; a collate.Collator is not safe for
// concurrent use.
func nameCollator() *collate.Collator {
	return collate.New(language.English, collate.Loose)
}
