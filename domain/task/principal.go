package task

// Principal is the acting identity supplied by the auth subsystem.
type Principal struct {
	ID            string `json:"id"`
	Authenticated bool   `json:"authenticated"`
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal {
	return Principal{}
}

// User returns an authenticated principal with the given id.
func User(id string) Principal {
	return Principal{ID: id, Authenticated: id != ""}
}

// IsAuthenticated reports whether the principal can see or own anything.
func (p Principal) IsAuthenticated() bool {
	return p.Authenticated && p.ID != ""
}
