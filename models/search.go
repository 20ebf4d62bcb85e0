package models

// SearchSort is the closed set of provider search orderings.
type SearchSort string

const (
	SortByRating  SearchSort = "rating"
	SortByPrice   SearchSort = "price"
	SortByReviews SearchSort = "reviews"
	SortByNewest  SearchSort = "newest"
)

// SearchFilters is the discovery facade's provider query. Zero values mean
// "not filtered".
type SearchFilters struct {
	Query        string
	Category     string
	MinPrice     float64
	MaxPrice     float64
	MinRating    float64
	VerifiedOnly bool
	Languages    []string
	Specialties  []string
	SortBy       SearchSort
	Page         int
	Size         int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Normalize clamps pagination and defaults the sort order.
func (f *SearchFilters) Normalize() {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = defaultPageSize
	}
	if f.Size > maxPageSize {
		f.Size = maxPageSize
	}
	switch f.SortBy {
	case SortByRating, SortByPrice, SortByReviews, SortByNewest:
	default:
		f.SortBy = SortByRating
	}
}
