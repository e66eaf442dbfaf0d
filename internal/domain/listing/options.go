package listing

// FilterOptions lists the values a client can filter by.
type FilterOptions struct {
	Categories []string
	Brands     []string
	Colors     []string
	Conditions []string
	Sizes      []string
	Sources    []string
}

// Stats counts stored listings and how many carry a vector.
type Stats struct {
	Total    int64
	Embedded int64
}
