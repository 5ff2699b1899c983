package collect

import "time"

// Item is a single news search result. Link is the canonical identity
// used for deduplication; Title and Description may carry the
// provider's inline <b> emphasis markup and are kept verbatim.
type Item struct {
	Link        string
	Title       string
	Description string
	PublishedAt time.Time // zero when the provider gave no usable date
	Keyword     string    // search keyword that produced this item
}
