package model

import "slices"

// Snapshot is the complete in-memory copy of all four collections.
type Snapshot struct {
	Items     []Item     `json:"items"`
	Locations []Location `json:"locations"`
	Users     []User     `json:"users"`
	Branding  Branding   `json:"branding"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Items:     slices.Clone(s.Items),
		Locations: slices.Clone(s.Locations),
		Users:     slices.Clone(s.Users),
		Branding:  s.Branding,
	}
}

// Session is the state of a signed-in client. Both fields are empty when
// nobody is signed in.
type Session struct {
	User  *User  `json:"user"`
	Token string `json:"token,omitempty"`
}
