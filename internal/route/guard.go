// Package route decides which screen a navigation lands on.
package route

// Paths the application knows.
const (
	Root     = "/"
	Login    = "/login"
	Register = "/register"
	Books    = "/books"
)

// AuthState answers whether the current session is authenticated.
type AuthState interface {
	IsAuthenticated() bool
}

// TokenPresence answers whether a token is stored, without going through
// the session manager.
type TokenPresence interface {
	HasToken() bool
}

// Decision is a guard outcome. When Allow is false the navigation goes to
// Redirect instead; Replace means the current history entry is replaced
// rather than a new one pushed.
type Decision struct {
	Allow    bool
	Redirect string
	Replace  bool
}

var allow = Decision{Allow: true}

// Protected admits only authenticated sessions.
func Protected(state AuthState) Decision {
	if state.IsAuthenticated() {
		return allow
	}
	return Decision{Redirect: Login, Replace: true}
}

// Public admits only anonymous sessions.
func Public(state AuthState) Decision {
	if !state.IsAuthenticated() {
		return allow
	}
	return Decision{Redirect: Books, Replace: true}
}

// Entry sends the root path to the listing or to login based on the
// stored token alone. It never renders anything itself.
func Entry(tokens TokenPresence) Decision {
	if tokens.HasToken() {
		return Decision{Redirect: Books, Replace: true}
	}
	return Decision{Redirect: Login, Replace: true}
}

// Unknown sends any unrecognised path back to the root.
func Unknown() Decision {
	return Decision{Redirect: Root, Replace: true}
}
