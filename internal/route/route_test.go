package route_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/blackwell-systems/bookctl/internal/route"
)

type state struct {
	authed bool
	token  bool
}

func (s *state) IsAuthenticated() bool { return s.authed }
func (s *state) HasToken() bool        { return s.token }

func TestProtected(t *testing.T) {
	if d := route.Protected(&state{authed: true}); !d.Allow {
		t.Errorf("Protected(authenticated) = %+v, want allow", d)
	}
	d := route.Protected(&state{})
	if d.Allow || d.Redirect != route.Login || !d.Replace {
		t.Errorf("Protected(anonymous) = %+v, want replace to %s", d, route.Login)
	}
}

func TestPublic(t *testing.T) {
	if d := route.Public(&state{}); !d.Allow {
		t.Errorf("Public(anonymous) = %+v, want allow", d)
	}
	d := route.Public(&state{authed: true})
	if d.Allow || d.Redirect != route.Books {
		t.Errorf("Public(authenticated) = %+v, want redirect to %s", d, route.Books)
	}
}

func TestEntry_UsesStoredTokenOnly(t *testing.T) {
	// the manager may not be initialised yet; only the token matters
	if d := route.Entry(&state{token: true}); d.Redirect != route.Books {
		t.Errorf("Entry(token) = %+v, want %s", d, route.Books)
	}
	if d := route.Entry(&state{authed: true}); d.Redirect != route.Login {
		t.Errorf("Entry(no token) = %+v, want %s", d, route.Login)
	}
}

func TestResolve(t *testing.T) {
	cases := []struct {
		name string
		st   state
		path string
		want string
	}{
		{"root anonymous", state{}, "/", route.Login},
		{"root with token", state{token: true, authed: true}, "/", route.Books},
		{"root with stale token", state{token: true}, "/", route.Login},
		{"books anonymous", state{}, route.Books, route.Login},
		{"books authenticated", state{authed: true, token: true}, route.Books, route.Books},
		{"login authenticated", state{authed: true, token: true}, route.Login, route.Books},
		{"register anonymous", state{}, route.Register, route.Register},
		{"unknown anonymous", state{}, "/nope", route.Login},
		{"unknown authenticated", state{authed: true, token: true}, "/nope", route.Books},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			st := c.st
			r := route.NewRouter(&st, &st)
			got, err := r.Resolve(c.path)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if got != c.want {
				t.Errorf("Resolve(%q) = %q, want %q", c.path, got, c.want)
			}
		})
	}
}

func TestNavigate_GuardRedirectReplacesEntry(t *testing.T) {
	st := &state{}
	r := route.NewRouter(st, st)

	if _, err := r.Navigate(route.Register); err != nil {
		t.Fatal(err)
	}
	got, err := r.Navigate(route.Books)
	if err != nil {
		t.Fatal(err)
	}
	if got != route.Login {
		t.Errorf("Navigate(books) landed on %q, want %q", got, route.Login)
	}
	h := r.History()
	want := []string{route.Register, route.Login}
	if len(h) != len(want) || h[0] != want[0] || h[1] != want[1] {
		t.Errorf("History = %v, want %v", h, want)
	}
}

func TestReplace(t *testing.T) {
	st := &state{authed: true, token: true}
	r := route.NewRouter(st, st)
	_, _ = r.Navigate(route.Books)
	_, _ = r.Navigate(route.Books)
	_, _ = r.Replace("/")

	if h := r.History(); len(h) != 2 {
		t.Errorf("History = %v, want two entries", h)
	}
}

func TestBack_RechecksGuards(t *testing.T) {
	st := &state{}
	r := route.NewRouter(st, st)
	_, _ = r.Navigate(route.Login)
	_, _ = r.Navigate(route.Register)

	// logging in while on register makes the public page off-limits
	st.authed, st.token = true, true
	got, ok := r.Back()
	if !ok || got != route.Books {
		t.Errorf("Back() = %q, %v; want %q, true", got, ok, route.Books)
	}
}

func TestRedirectToLogin_AtMostOnce(t *testing.T) {
	st := &state{authed: true, token: true}
	r := route.NewRouter(st, st)
	_, _ = r.Navigate(route.Books)

	var navigations int32
	r.OnNavigate(func(string) { atomic.AddInt32(&navigations, 1) })

	st.authed, st.token = false, false
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.RedirectToLogin()
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&navigations); n != 1 {
		t.Errorf("navigations = %d, want 1", n)
	}
	if r.Current() != route.Login {
		t.Errorf("Current = %q, want %q", r.Current(), route.Login)
	}
	if h := r.History(); len(h) != 1 {
		t.Errorf("History = %v, want the books entry replaced", h)
	}
}

func TestRedirectToLogin_NoopOnLogin(t *testing.T) {
	st := &state{}
	r := route.NewRouter(st, st)
	_, _ = r.Navigate(route.Login)
	if r.RedirectToLogin() {
		t.Error("RedirectToLogin on the login page should not navigate")
	}
}
