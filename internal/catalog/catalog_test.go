package catalog_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/bookctl/internal/api"
	"github.com/blackwell-systems/bookctl/internal/backendtest"
	"github.com/blackwell-systems/bookctl/internal/catalog"
	"github.com/google/go-cmp/cmp"
)

var sampleYAML = []byte(`
- name: "Structure and Interpretation of Computer Programs"
  author: "Abelson & Sussman"
  description: "the wizard book"
- name: "Operating Systems: Three Easy Pieces"
  author: "Arpaci-Dusseau"
`)

var sample = []catalog.Book{
	{ID: 1, Name: "Structure and Interpretation of Computer Programs", Author: "Abelson & Sussman", Description: "the wizard book"},
	{ID: 2, Name: "Operating Systems: Three Easy Pieces", Author: "Arpaci-Dusseau", Description: "virtualization, concurrency, persistence"},
	{ID: 3, Name: "Dune", Author: "Herbert"},
}

// --- Parse / Marshal ---

func TestParse_ValidYAML(t *testing.T) {
	books, err := catalog.Parse(sampleYAML)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []catalog.NewBook{
		{Name: "Structure and Interpretation of Computer Programs", Author: "Abelson & Sussman", Description: "the wizard book"},
		{Name: "Operating Systems: Three Easy Pieces", Author: "Arpaci-Dusseau"},
	}
	if diff := cmp.Diff(want, books); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Empty(t *testing.T) {
	books, err := catalog.Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil): %v", err)
	}
	if len(books) != 0 {
		t.Errorf("expected 0 books, got %d", len(books))
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := catalog.Parse([]byte("- name: [unclosed")); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := catalog.Load(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing import file")
	}
}

func TestSave_WritesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yml")
	if err := catalog.Save(path, sample[:1]); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"id: 1", "name: Structure and Interpretation", "author:", "Abelson"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("saved YAML missing %q:\n%s", want, data)
		}
	}
}

func TestMarshal_EmptySlice(t *testing.T) {
	data, err := catalog.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Marshal(nil) = %q, want []", data)
	}
}

// --- Filter ---

func ids(books []catalog.Book) []int64 {
	out := make([]int64, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name   string
		filter catalog.Filter
		want   []int64
	}{
		{"empty", catalog.Filter{}, []int64{1, 2, 3}},
		{"name", catalog.Filter{Search: "dune"}, []int64{3}},
		{"author", catalog.Filter{Search: "SUSSMAN"}, []int64{1}},
		{"description", catalog.Filter{Search: "concurrency"}, []int64{2}},
		{"exact author", catalog.Filter{Author: "herbert"}, []int64{3}},
		{"combined", catalog.Filter{Author: "Herbert", Search: "wizard"}, []int64{}},
		{"no match", catalog.Filter{Search: "zzz"}, []int64{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ids(c.filter.Apply(sample))
			if diff := cmp.Diff(c.want, got); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestByID(t *testing.T) {
	if b := catalog.ByID(sample, 2); b == nil || b.Author != "Arpaci-Dusseau" {
		t.Errorf("ByID(2) = %+v", b)
	}
	if b := catalog.ByID(sample, 99); b != nil {
		t.Errorf("ByID(99) = %+v, want nil", b)
	}
}

// --- Validation ---

func TestValidateBook(t *testing.T) {
	cases := []struct {
		name  string
		book  catalog.NewBook
		field string
	}{
		{"ok", catalog.NewBook{Name: "Dune", Author: "Herbert"}, ""},
		{"missing name", catalog.NewBook{Author: "Herbert"}, "name"},
		{"blank author", catalog.NewBook{Name: "Dune", Author: "  "}, "author"},
		{"long name", catalog.NewBook{Name: strings.Repeat("n", 201), Author: "a"}, "name"},
		{"long author", catalog.NewBook{Name: "n", Author: strings.Repeat("a", 101)}, "author"},
		{"long description", catalog.NewBook{Name: "n", Author: "a", Description: strings.Repeat("d", 1001)}, "description"},
		{"limits", catalog.NewBook{Name: strings.Repeat("n", 200), Author: strings.Repeat("a", 100), Description: strings.Repeat("d", 1000)}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := catalog.ValidateBook(c.book)
			var fe *catalog.FieldError
			switch {
			case c.field == "" && err != nil:
				t.Errorf("unexpected error: %v", err)
			case c.field != "" && !errors.As(err, &fe):
				t.Errorf("err = %v, want *FieldError", err)
			case c.field != "" && fe.Field != c.field:
				t.Errorf("Field = %q, want %q", fe.Field, c.field)
			}
		})
	}
}

func TestValidatePatch_OnlyChecksSetFields(t *testing.T) {
	if err := catalog.ValidatePatch(catalog.Patch{}); err != nil {
		t.Errorf("empty patch: %v", err)
	}
	if err := catalog.ValidatePatch(catalog.Patch{Description: catalog.String("")}); err != nil {
		t.Errorf("clearing description should be allowed: %v", err)
	}
	if err := catalog.ValidatePatch(catalog.Patch{Name: catalog.String("")}); err == nil {
		t.Error("clearing name should be rejected")
	}
}

// --- Upload checks ---

var (
	pngHead  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	jpegHead = []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
)

func TestCheckUpload(t *testing.T) {
	cases := []struct {
		name   string
		file   string
		size   int64
		head   []byte
		reason catalog.RejectReason
		ct     string
	}{
		{"png", "cover.png", 1024, pngHead, catalog.Accepted, "image/png"},
		{"jpeg upper ext", "COVER.JPEG", 1024, jpegHead, catalog.Accepted, "image/jpeg"},
		{"jpg no head", "cover.jpg", 1024, nil, catalog.Accepted, "image/jpeg"},
		{"exactly 10MiB", "cover.png", catalog.MaxUploadBytes, pngHead, catalog.Accepted, "image/png"},
		{"too big", "cover.png", catalog.MaxUploadBytes + 1, pngHead, catalog.RejectSize, ""},
		{"gif", "cover.gif", 10, []byte("GIF89a"), catalog.RejectType, ""},
		{"renamed text", "notes.png", 10, []byte("hello world"), catalog.RejectType, ""},
		{"no extension", "cover", 10, pngHead, catalog.RejectType, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := catalog.CheckUpload(c.file, c.size, c.head)
			if got.Reason != c.reason {
				t.Errorf("Reason = %v, want %v", got.Reason, c.reason)
			}
			if got.OK() != (c.reason == catalog.Accepted) {
				t.Errorf("OK() = %v", got.OK())
			}
			if got.ContentType != c.ct {
				t.Errorf("ContentType = %q, want %q", got.ContentType, c.ct)
			}
			if !got.OK() && got.Err() == nil {
				t.Error("rejected check should carry an error")
			}
		})
	}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCheckFile(t *testing.T) {
	check, err := catalog.CheckFile(writeFile(t, "a.png", pngHead))
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	if !check.OK() {
		t.Errorf("CheckFile(png) = %+v", check)
	}
	if _, err := catalog.CheckFile(t.TempDir()); err == nil {
		t.Error("CheckFile(dir) should fail")
	}
}

// --- Library against a live fake backend ---

func newLibrary(t *testing.T) (*catalog.Library, *backendtest.Server) {
	t.Helper()
	srv := backendtest.New(t)
	return catalog.NewLibrary(api.New(srv.URL), nil), srv
}

func TestLibrary_CreateRefetches(t *testing.T) {
	lib, srv := newLibrary(t)
	ctx := context.Background()

	b, err := lib.Create(ctx, catalog.NewBook{Name: "Dune", Author: "Herbert", Description: "...", Cover: ""})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.ID == 0 {
		t.Fatal("created book has no id")
	}
	if catalog.ByID(lib.Books(), b.ID) == nil {
		t.Errorf("list after create %v does not include id %d", ids(lib.Books()), b.ID)
	}

	var lists int
	for _, r := range srv.Requests() {
		if r.Path == "/book/list" {
			lists++
		}
	}
	if lists != 1 {
		t.Errorf("list fetched %d times after create, want 1", lists)
	}
	if lib.Loading() {
		t.Error("Loading should be false once calls return")
	}
}

func TestLibrary_UpdatePatchesAndRefetches(t *testing.T) {
	lib, srv := newLibrary(t)
	ctx := context.Background()
	id := srv.AddBook("Dune", "Herbert", "desert planet", "")
	if err := lib.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	if err := lib.Update(ctx, id, catalog.Patch{Author: catalog.String("Frank Herbert")}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	want := []catalog.Book{{ID: id, Name: "Dune", Author: "Frank Herbert", Description: "desert planet"}}
	if diff := cmp.Diff(want, lib.Books()); diff != "" {
		t.Errorf("Books after update (-want +got):\n%s", diff)
	}
}

func TestLibrary_DeleteNonexistentLeavesList(t *testing.T) {
	lib, srv := newLibrary(t)
	ctx := context.Background()
	srv.AddBook("Dune", "Herbert", "", "")
	if err := lib.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	before := lib.Books()
	requests := len(srv.Requests())

	err := lib.Delete(ctx, 9999)
	apiErr, ok := api.AsError(err)
	if !ok {
		t.Fatalf("Delete(9999) error = %v (%T), want *api.Error", err, err)
	}
	if apiErr.Kind != api.KindNotFound {
		t.Errorf("Kind = %v, want not-found", apiErr.Kind)
	}
	if diff := cmp.Diff(before, lib.Books()); diff != "" {
		t.Errorf("list changed after failed delete (-before +after):\n%s", diff)
	}
	if got := len(srv.Requests()) - requests; got != 1 {
		t.Errorf("%d requests after failed delete, want only the delete", got)
	}
}

func TestLibrary_DeleteRemoves(t *testing.T) {
	lib, srv := newLibrary(t)
	ctx := context.Background()
	id := srv.AddBook("Dune", "Herbert", "", "")

	if err := lib.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := len(lib.Books()); n != 0 {
		t.Errorf("%d books after delete, want 0", n)
	}
}

func TestLibrary_RefreshFailureKeepsList(t *testing.T) {
	lib, srv := newLibrary(t)
	ctx := context.Background()
	srv.AddBook("Dune", "Herbert", "", "")
	if err := lib.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	srv.Fail("GET /book/list", http.StatusInternalServerError, nil)
	if err := lib.Refresh(ctx); !errors.Is(err, api.ErrServer) {
		t.Errorf("Refresh err = %v, want server error", err)
	}
	if len(lib.Books()) != 1 {
		t.Error("failed refresh should keep the previous list")
	}
	if lib.RefreshErr() == nil {
		t.Error("RefreshErr should report the failure")
	}
}

func TestLibrary_CreateSurvivesRefetchFailure(t *testing.T) {
	lib, srv := newLibrary(t)
	srv.Fail("GET /book/list", http.StatusInternalServerError, nil)

	b, err := lib.Create(context.Background(), catalog.NewBook{Name: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatalf("Create should succeed even if refetch fails: %v", err)
	}
	if b.ID == 0 || srv.BookCount() != 1 {
		t.Error("book was not created")
	}
	if lib.RefreshErr() == nil {
		t.Error("refetch failure should be recorded")
	}
}

func TestLibrary_CreateRejectsInvalidWithoutRequest(t *testing.T) {
	lib, srv := newLibrary(t)
	if _, err := lib.Create(context.Background(), catalog.NewBook{Author: "nobody"}); err == nil {
		t.Fatal("expected validation error")
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("%d requests sent for an invalid book", n)
	}
}

func TestLibrary_Get(t *testing.T) {
	lib, srv := newLibrary(t)
	id := srv.AddBook("Dune", "Herbert", "", "")

	b, err := lib.Get(context.Background(), id)
	if err != nil || b == nil || b.Name != "Dune" {
		t.Errorf("Get(%d) = %+v, %v", id, b, err)
	}
	b, err = lib.Get(context.Background(), id+100)
	if err != nil || b != nil {
		t.Errorf("Get(missing) = %+v, %v; want nil, nil", b, err)
	}
}

// --- Cover drafts ---

func TestCoverDraft_Resolve(t *testing.T) {
	_, srv := newLibrary(t)
	client := api.New(srv.URL)
	existing := &catalog.Book{ID: 1, Name: "Dune", Cover: "/uploads/old.png"}

	if got := catalog.NewCoverDraft(client, nil).Resolve(); got != "" {
		t.Errorf("new book without upload resolves to %q, want empty", got)
	}
	edit := catalog.NewCoverDraft(client, existing)
	if got := edit.Resolve(); got != "/uploads/old.png" {
		t.Errorf("edit without upload resolves to %q, want existing cover", got)
	}

	path, err := edit.Upload(context.Background(), writeFile(t, "new.png", pngHead))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if path != "/uploads/new.png" || edit.Resolve() != path {
		t.Errorf("after upload Resolve = %q, Upload = %q", edit.Resolve(), path)
	}

	edit.Discard()
	if got := edit.Resolve(); got != "/uploads/old.png" {
		t.Errorf("after discard Resolve = %q, want existing cover", got)
	}
}

func TestCoverDraft_RejectedFileSendsNothing(t *testing.T) {
	_, srv := newLibrary(t)
	draft := catalog.NewCoverDraft(api.New(srv.URL), nil)

	_, err := draft.Upload(context.Background(), writeFile(t, "notes.txt", []byte("text")))
	if err == nil {
		t.Fatal("expected rejection")
	}
	if n := len(srv.Requests()); n != 0 {
		t.Errorf("%d requests sent for a rejected file", n)
	}
	if draft.Uploaded() != "" {
		t.Error("rejected upload should not be remembered")
	}
}

func TestCoverDraft_Progress(t *testing.T) {
	_, srv := newLibrary(t)
	draft := catalog.NewCoverDraft(api.New(srv.URL), nil)

	var seen int64
	draft.Progress = func(r io.Reader, size int64) io.Reader {
		seen = size
		return r
	}
	data := append(append([]byte{}, jpegHead...), bytes.Repeat([]byte{0}, 100)...)
	if _, err := draft.Upload(context.Background(), writeFile(t, "c.jpg", data)); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if seen != int64(len(data)) {
		t.Errorf("progress saw size %d, want %d", seen, len(data))
	}
}
