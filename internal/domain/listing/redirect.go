package listing

// RedirectURL returns a deep link into the marketplace app or site.
// Unknown sources fall back to the listing URL.
func (l *Listing) RedirectURL() string {
	if l.ExternalID == "" {
		return l.URL
	}
	switch l.Source {
	case SourceDepop:
		return "depop://product/" + l.ExternalID
	case SourceGrailed:
		return "https://www.grailed.com/listings/" + l.ExternalID
	case SourceVinted:
		return "https://www.vinted.com/items/" + l.ExternalID
	default:
		return l.URL
	}
}
