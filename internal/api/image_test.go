package api_test

import (
	"testing"

	"github.com/blackwell-systems/bookctl/internal/api"
)

func TestResolveImageURL(t *testing.T) {
	const base = "http://localhost:3000"
	cases := []struct{ in, want string }{
		{"", ""},
		{"http://cdn.example.com/a.png", "http://cdn.example.com/a.png"},
		{"https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"/uploads/a.png", base + "/uploads/a.png"},
		{"uploads/a.png", base + "/uploads/a.png"},
	}
	for _, c := range cases {
		if got := api.ResolveImageURL(base, c.in); got != c.want {
			t.Errorf("ResolveImageURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := api.ResolveImageURL(base+"/", "/a.png"); got != base+"/a.png" {
		t.Errorf("trailing slash on base not collapsed: %q", got)
	}
}
