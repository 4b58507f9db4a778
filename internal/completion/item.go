package completion

// ItemKind classifies a completion item. The LSP layer maps these to
// protocol completion item kinds.
type ItemKind string

const (
	ItemField    ItemKind = "field"
	ItemClass    ItemKind = "class"
	ItemKeyword  ItemKind = "keyword"
	ItemFunction ItemKind = "function"
)

// Item is one completion candidate. SortText carries the ranking tier
// prefix; items in lower tiers sort before items in higher tiers and
// alphabetically within a tier.
type Item struct {
	Label         string
	Kind          ItemKind
	Detail        string
	Documentation string
	SortText      string
	FilterText    string
	InsertText    string
}
