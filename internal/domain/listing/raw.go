package listing

// RawRecord is a marketplace item as a source client returns it. Marketplace ids
// are already resolved to names; free-text metadata is normalized on ingest.
type RawRecord struct {
	Source      Source `validate:"required,oneof=depop grailed vinted"`
	ExternalID  string `validate:"required"`
	Title       string `validate:"max=1000"`
	Description string
	Price       float64 `validate:"gte=0"`
	Currency    string  `validate:"omitempty,len=3"`
	URL         string  `validate:"omitempty,url"`
	ImageURL    string  `validate:"required,url"`
	SellerName  string

	Brand     string
	Category  string
	Color     string
	Condition string
	Size      string
}
