package domain

import "strings"

// Free-text postal address of an event venue. Street is optional.
type Address struct {
	Street string
	City   string
	State  string
}

// Compose joins the non-empty parts into a single query string,
// collapsing internal whitespace so equal addresses produce equal keys.
func (a Address) Compose() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{a.Street, a.City, a.State} {
		p = strings.Join(strings.Fields(p), " ")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// IsZero reports whether the address carries nothing to geocode.
func (a Address) IsZero() bool { return a.Compose() == "" }
