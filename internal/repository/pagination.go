package repository

// Page represents a limit/offset window for listing operations.
// I expect callers to have validated it; stores still clamp it.
type Page struct {
	Limit  int
	Offset int
}

// DefaultPageLimit is used when a store receives a non-positive limit.
const DefaultPageLimit = 10

// Sanitize clamps a page to something a store can execute safely.
func (p Page) Sanitize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
