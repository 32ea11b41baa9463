package route

import (
	"fmt"
	"sync"
)

// maxHops bounds redirect chains; the route table never needs more than
// two.
const maxHops = 8

// Router tracks the current route and its history.
type Router struct {
	auth   AuthState
	tokens TokenPresence

	mu      sync.Mutex
	history []string
	onNav   []func(path string)
}

// NewRouter starts at no route; call Navigate to enter.
func NewRouter(auth AuthState, tokens TokenPresence) *Router {
	return &Router{auth: auth, tokens: tokens}
}

// Resolve applies the route table and guards starting at path and returns
// the route that renders. Every guard redirect replaces, so the entry for
// path itself is overwritten by the final route.
func (r *Router) Resolve(path string) (string, error) {
	for hop := 0; hop < maxHops; hop++ {
		d := r.decide(path)
		if d.Allow {
			return path, nil
		}
		path = d.Redirect
	}
	return "", fmt.Errorf("redirect loop resolving %s", path)
}

func (r *Router) decide(path string) Decision {
	switch path {
	case Root:
		return Entry(r.tokens)
	case Login, Register:
		return Public(r.auth)
	case Books:
		return Protected(r.auth)
	default:
		return Unknown()
	}
}

// Navigate pushes path (or wherever the guards send it) onto history.
func (r *Router) Navigate(path string) (string, error) {
	return r.move(path, false)
}

// Replace swaps the current entry for path.
func (r *Router) Replace(path string) (string, error) {
	return r.move(path, true)
}

func (r *Router) move(path string, replace bool) (string, error) {
	target, err := r.Resolve(path)
	if err != nil {
		return "", err
	}
	r.mu.Lock()
	if replace && len(r.history) > 0 {
		r.history[len(r.history)-1] = target
	} else {
		r.history = append(r.history, target)
	}
	fns := append([]func(string){}, r.onNav...)
	r.mu.Unlock()

	for _, fn := range fns {
		fn(target)
	}
	return target, nil
}

// RedirectToLogin replaces the current route with login. It does nothing
// when login is already current, so repeated session-expired signals
// navigate at most once. It reports whether a navigation happened.
func (r *Router) RedirectToLogin() bool {
	r.mu.Lock()
	if n := len(r.history); n > 0 && r.history[n-1] == Login {
		r.mu.Unlock()
		return false
	}
	if n := len(r.history); n > 0 {
		r.history[n-1] = Login
	} else {
		r.history = append(r.history, Login)
	}
	fns := append([]func(string){}, r.onNav...)
	r.mu.Unlock()

	for _, fn := range fns {
		fn(Login)
	}
	return true
}

// Back pops the current entry and returns the one below it, re-checked
// against the guards.
func (r *Router) Back() (string, bool) {
	r.mu.Lock()
	if len(r.history) < 2 {
		r.mu.Unlock()
		return r.Current(), false
	}
	r.history = r.history[:len(r.history)-1]
	prev := r.history[len(r.history)-1]
	r.mu.Unlock()

	target, err := r.Replace(prev)
	if err != nil {
		return r.Current(), false
	}
	return target, true
}

// Current returns the route on top of history, or "" before the first
// navigation.
func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.history) == 0 {
		return ""
	}
	return r.history[len(r.history)-1]
}

// History returns a copy of the history stack, oldest first.
func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.history...)
}

// OnNavigate registers fn to run after every route change.
func (r *Router) OnNavigate(fn func(path string)) {
	r.mu.Lock()
	r.onNav = append(r.onNav, fn)
	r.mu.Unlock()
}
