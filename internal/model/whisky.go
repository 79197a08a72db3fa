package model

// UnassignedID marks a whisky that has not been persisted yet.
// Identifiers assigned by the store start at 1.
const UnassignedID int64 = 0

// Whisky represents one entry in the collection.
type Whisky struct {
	ID     int64  `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Origin string `json:"origin" db:"origin"`
}

// NewWhisky creates an in-memory whisky that has not been persisted yet.
func NewWhisky(name, origin string) *Whisky {
	return &Whisky{
		ID:     UnassignedID,
		Name:   name,
		Origin: origin,
	}
}

// IsPersisted reports whether the store has assigned an ID.
func (w *Whisky) IsPersisted() bool {
	return w.ID != UnassignedID
}

// MaxFieldLength is the column width of name and origin, in characters.
const MaxFieldLength = 100

// WhiskyRequest represents the request payload for creating or updating a whisky.
type WhiskyRequest struct {
	Name   string `json:"name" validate:"required,max=100"`
	Origin string `json:"origin" validate:"required,max=100"`
}

// SeedWhiskies are inserted when the collection is first created empty.
var SeedWhiskies = []Whisky{
	{Name: "Bowmore 15 Years Laimrig", Origin: "Scotland, Islay"},
	{Name: "Talisker 57° North", Origin: "Scotland, Island"},
}
