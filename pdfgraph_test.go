package pdfgraph

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pdfgraph/config"
	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/internal/pdftest"
	"github.com/tsawler/pdfgraph/pages"
	"github.com/tsawler/pdfgraph/projection"
	"github.com/tsawler/pdfgraph/reader"
	"github.com/tsawler/pdfgraph/source"
)

func threePages() []byte {
	return pdftest.Pages("BT (one) Tj ET", "BT (two) Tj ET", "BT (three) Tj ET")
}

func contentOf(t *testing.T, doc *core.Document, pageID string) string {
	t.Helper()
	page, ok := doc.Object(pageID)
	if !ok {
		t.Fatalf("page %q not found", pageID)
	}
	dict, ok := page.(core.Dict)
	if !ok {
		t.Fatalf("page %q is %T", pageID, page)
	}
	contents, err := doc.Resolve(dict["Contents"])
	if err != nil {
		t.Fatalf("Resolve Contents failed: %v", err)
	}
	s, ok := contents.(*core.Stream)
	if !ok {
		t.Fatalf("Contents of %q is %T", pageID, contents)
	}
	return string(s.Data)
}

func TestPageCount(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		p    *Pipeline
		want int
	}{
		{"all", FromBytes(threePages()), 3},
		{"selected", FromBytes(threePages()).Pages(3, 1), 2},
		{"range", FromBytes(threePages()).PageRange(2, 3), 2},
		{"repeated calls append", FromBytes(threePages()).Pages(1).Pages(2), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.p.PageCount(ctx)
			if err != nil {
				t.Fatalf("PageCount failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("PageCount = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPagesDropsUnusedObjects(t *testing.T) {
	doc, err := FromBytes(threePages()).Pages(2).Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	for _, id := range []string{"obj2", "obj3", "obj4", "obj7", "obj8"} {
		if doc.Has(id) {
			t.Errorf("%s should have been collected", id)
		}
	}
	for _, id := range []string{"obj1", "obj5", "obj6", "pages2"} {
		if !doc.Has(id) {
			t.Errorf("%s missing", id)
		}
	}
	if doc.Len() != 4 {
		t.Errorf("Len = %d, want 4 (%v)", doc.Len(), doc.IDs())
	}
}

func TestPagesAndNormalizeIDs(t *testing.T) {
	doc, err := FromBytes(threePages()).Pages(2, 1).NormalizeIDs().Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}

	if root := doc.Trailer["Root"]; root != core.Ref("catalog") {
		t.Errorf("Root = %v, want catalog", root)
	}
	for _, id := range []string{"catalog", "pages", "page1", "page2"} {
		if !doc.Has(id) {
			t.Errorf("%s missing after normalization (%v)", id, doc.IDs())
		}
	}
	if got := contentOf(t, doc, "page1"); got != "BT (two) Tj ET" {
		t.Errorf("page1 content = %q, want the second page", got)
	}
	if got := contentOf(t, doc, "page2"); got != "BT (one) Tj ET" {
		t.Errorf("page2 content = %q, want the first page", got)
	}
}

func TestPagesKeepInheritedAttributes(t *testing.T) {
	data := pdftest.Build("1.7", []pdftest.Object{
		{Num: 1, Body: "<< /Type /Catalog /Pages 2 0 R >>"},
		{Num: 2, Body: "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2 /MediaBox [0 0 595 842] /Resources << /Font << /F1 5 0 R >> >> >>"},
		{Num: 3, Body: "<< /Type /Page /Parent 2 0 R >>"},
		{Num: 4, Body: "<< /Type /Page /Parent 2 0 R >>"},
		{Num: 5, Body: "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>"},
	}, "/Root 1 0 R")

	out, err := FromBytes(data).Pages(2).Bytes(context.Background())
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	doc, err := reader.Parse(out, "")
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	ids, err := pages.ListPageIDs(doc)
	if err != nil || len(ids) != 1 {
		t.Fatalf("pages = %v, %v", ids, err)
	}
	page, err := pages.NewPage(doc, ids[0], doc)
	if err != nil {
		t.Fatalf("NewPage failed: %v", err)
	}
	if h, err := page.Height(); err != nil || h != 842 {
		t.Errorf("Height = %v, %v", h, err)
	}
	resources, err := page.Resources()
	if err != nil {
		t.Fatalf("Resources failed: %v", err)
	}
	fonts, _ := resources.GetDict("Font")
	font, err := doc.ResolveDict(fonts["F1"])
	if err != nil {
		t.Fatalf("font lost: %v", err)
	}
	if font["BaseFont"] != core.Name("Helvetica") {
		t.Errorf("font = %v", font)
	}
}

func TestInvalidPages(t *testing.T) {
	ctx := context.Background()

	_, err := FromBytes(threePages()).Pages(0).PageCount(ctx)
	if err == nil || !strings.Contains(err.Error(), "invalid page number 0") {
		t.Errorf("expected invalid page error, got %v", err)
	}

	_, err = FromBytes(threePages()).Pages(4).PageCount(ctx)
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("expected out of range error, got %v", err)
	}
}

func TestConfigurationReturnsNewPipeline(t *testing.T) {
	ctx := context.Background()
	base := FromBytes(threePages())
	selected := base.Pages(1)

	if n := Must(base.PageCount(ctx)); n != 3 {
		t.Errorf("base PageCount = %d, want 3", n)
	}
	if n := Must(selected.PageCount(ctx)); n != 1 {
		t.Errorf("selected PageCount = %d, want 1", n)
	}
	if base.options.pages != nil {
		t.Errorf("base options changed: %v", base.options.pages)
	}
}

func TestBytes(t *testing.T) {
	ctx := context.Background()
	out, err := FromBytes(threePages()).Pages(3, 2).ReviveContents().CompressContent().Bytes(ctx)
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}
	if !strings.HasPrefix(string(out), "%PDF-1.7\n") {
		t.Errorf("unexpected header: %q", out[:16])
	}

	doc, err := FromBytes(out).ReviveContents().NormalizeIDs().Document(ctx)
	if err != nil {
		t.Fatalf("reparse failed: %v", err)
	}
	ids := doc.IDs()
	var revived []string
	for _, id := range ids {
		if strings.HasPrefix(id, "content-of-") {
			revived = append(revived, id)
		}
	}
	if len(revived) != 2 {
		t.Fatalf("revived contents = %v, want 2", revived)
	}
	obj, _ := doc.Object(revived[0])
	content, ok := obj.(core.Content)
	if !ok || len(content) != 1 {
		t.Fatalf("revived content = %#v", obj)
	}
	group, ok := content[0].(core.Content)
	if !ok || len(group) != 3 {
		t.Fatalf("expected a BT..ET group, got %#v", content[0])
	}
	if tj, ok := group[1].(*core.Operator); !ok || tj.Cmd != "Tj" || tj.Args[0] != core.String("three") {
		t.Errorf("first page should be the old third page, got %#v", group[1])
	}
}

func TestJSON(t *testing.T) {
	js, err := FromBytes(threePages()).Pages(1).NormalizeIDs().JSON(context.Background())
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}
	doc, err := projection.Unmarshal(js)
	if err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !doc.Has("page1") || doc.Has("page2") {
		t.Errorf("unexpected ids %v", doc.IDs())
	}
}

func TestInfo(t *testing.T) {
	data := pdftest.Build("1.4", []pdftest.Object{
		{Num: 1, Body: "<< /Type /Catalog /Pages 2 0 R >>"},
		{Num: 2, Body: "<< /Type /Pages /Kids [] /Count 0 >>"},
		{Num: 3, Body: "<< /Title (Quarterly report) /Author <FEFF00480069> /Trapped /False /Rev 2 /Subject 4 0 R >>"},
		{Num: 4, Body: "(indirect)"},
	}, "/Root 1 0 R /Info 3 0 R")

	info, err := FromBytes(data).Info(context.Background())
	if err != nil {
		t.Fatalf("Info failed: %v", err)
	}
	want := map[string]string{
		"Title":   "Quarterly report",
		"Author":  "Hi",
		"Trapped": "False",
		"Rev":     "2",
		"Subject": "indirect",
	}
	for k, v := range want {
		if info[k] != v {
			t.Errorf("info[%q] = %q, want %q", k, info[k], v)
		}
	}

	info, err = FromBytes(threePages()).Info(context.Background())
	if err != nil || len(info) != 0 {
		t.Errorf("document without Info: %v, %v", info, err)
	}
}

func TestFromDocumentLeavesInputAlone(t *testing.T) {
	doc, err := reader.Parse(threePages(), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	before := doc.Len()

	out, err := FromDocument(doc).Pages(1).ReviveContents().NormalizeIDs().Document(context.Background())
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if !out.Has("catalog") || !out.Has("page1") {
		t.Errorf("result not normalized: %v", out.IDs())
	}
	if doc.Len() != before || !doc.Has("obj1") || doc.Trailer["Root"] != core.Ref("obj1") {
		t.Errorf("input document changed: %v", doc.IDs())
	}
	if got := contentOf(t, doc, "obj3"); got != "BT (one) Tj ET" {
		t.Errorf("input contents changed: %q", got)
	}
}

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "three.pdf")
	if err := os.WriteFile(path, threePages(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	ctx := context.Background()

	if _, err := Open(path).PageCount(ctx); !errors.Is(err, source.ErrLocalAccessDenied) {
		t.Errorf("expected ErrLocalAccessDenied, got %v", err)
	}
	n, err := Open(path).AllowLocalAccess().PageCount(ctx)
	if err != nil {
		t.Fatalf("PageCount failed: %v", err)
	}
	if n != 3 {
		t.Errorf("PageCount = %d, want 3", n)
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := Open(path).AllowLocalAccess().PageCount(canceled); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}

	if _, err := Open("").PageCount(ctx); err == nil {
		t.Errorf("expected an error without a source")
	}
}

type mapLoader map[string][]byte

func (m mapLoader) Load(_ context.Context, location string) ([]byte, error) {
	data, ok := m[location]
	if !ok {
		return nil, &core.IOError{Location: location, Err: os.ErrNotExist}
	}
	return data, nil
}

func TestWithLoader(t *testing.T) {
	loader := mapLoader{"mem://three": threePages()}
	ctx := context.Background()

	n, err := Open("mem://three").WithLoader(loader).PageCount(ctx)
	if err != nil || n != 3 {
		t.Errorf("PageCount = %d, %v", n, err)
	}
	if _, err := Open("mem://missing").WithLoader(loader).PageCount(ctx); !errors.Is(err, core.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestFromConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "three.pdf")
	if err := os.WriteFile(path, threePages(), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := config.Default()
	cfg.Source = path
	cfg.Pages = []int{3}
	cfg.NormalizeIDs = true
	cfg.Log.Level = "error"

	ctx := context.Background()
	if _, err := FromConfig(cfg).PageCount(ctx); !errors.Is(err, source.ErrLocalAccessDenied) {
		t.Errorf("expected ErrLocalAccessDenied, got %v", err)
	}

	doc, err := FromConfig(cfg).AllowLocalAccess().Document(ctx)
	if err != nil {
		t.Fatalf("Document failed: %v", err)
	}
	if got := contentOf(t, doc, "page1"); got != "BT (three) Tj ET" {
		t.Errorf("page1 content = %q", got)
	}

	cfg.Pages = []int{0}
	if _, err := FromConfig(cfg).PageCount(ctx); err == nil {
		t.Errorf("expected a validation error")
	}
}

func TestMust(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Must did not panic")
		}
	}()
	Must(FromBytes([]byte("not a pdf")).PageCount(context.Background()))
}
