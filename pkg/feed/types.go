package feed

// Kind describes the result of parsing a generated feed
type Kind int

// parse outcome kinds
const (
	KindMalformed Kind = iota // the text is not well-formed XML
	KindEmpty                 // well-formed, but no items
	KindItems                 // well-formed with at least one item
)

// String returns a human-readable kind name
func (k Kind) String() string {
	switch k {
	case KindItems:
		return "items"
	case KindEmpty:
		return "empty"
	default:
		return "malformed"
	}
}

// placeholders used for missing item fields
const (
	NoTitle       = "no title"
	NoDescription = "no description"
	NoLink        = "#"
)

// Entry is a single article extracted from a generated feed.
// Description may contain markup, PubDate is kept as generated (RFC-822 or empty).
type Entry struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Description string `json:"description"`
	PubDate     string `json:"pub_date"`
}

// Channel holds feed-level metadata, all fields are optional
type Channel struct {
	Title       string `json:"title,omitempty"`
	Link        string `json:"link,omitempty"`
	Description string `json:"description,omitempty"`
}

// Outcome is the result of Parse. Entries are set for KindItems only, Err for KindMalformed only.
type Outcome struct {
	Kind    Kind
	Entries []Entry
	Channel Channel
	Err     error
}

// HasItems reports if the outcome can be shown as a structured list
func (o Outcome) HasItems() bool {
	return o.Kind == KindItems && len(o.Entries) > 0
}
