package reader

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/internal/pdftest"
	"github.com/tsawler/pdfgraph/security"
)

var fileID = []byte("0123456789abcdef")

func TestParse(t *testing.T) {
	doc, err := Parse(pdftest.Pages("q Q"), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if doc.Version != "1.7" {
		t.Errorf("Version = %q, want 1.7", doc.Version)
	}

	want := []string{"obj1", "obj2", "obj3", "obj4"}
	if got := doc.IDs(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("IDs = %v, want %v", got, want)
	}
	if root, _ := doc.Trailer.GetRef("Root"); root != "obj1" {
		t.Errorf("Root = %q, want obj1", root)
	}

	obj, _ := doc.Object("obj4")
	s, ok := obj.(*core.Stream)
	if !ok {
		t.Fatalf("obj4 is %T, want stream", obj)
	}
	if string(s.Data) != "q Q" {
		t.Errorf("stream data = %q", s.Data)
	}
	if s.Encoding != core.EncodingHex {
		t.Errorf("unfiltered stream should use hex encoding")
	}

	page, _ := doc.Object("obj3")
	if parent, _ := page.(core.Dict).GetRef("Parent"); parent != "obj2" {
		t.Errorf("page Parent = %q", parent)
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{"plain", "%PDF-1.4\n", "1.4", false},
		{"two digit minor", "%PDF-1.10\n", "1.10", false},
		{"leading junk", "garbage\r\n%PDF-2.0\n", "2.0", false},
		{"missing", "hello world", "", true},
		{"bad version", "%PDF-x.y\n", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHeader([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeader error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("version = %q, want %q", got, tt.want)
			}
		})
	}

	if _, err := Parse([]byte("not a pdf"), ""); !errors.Is(err, core.ErrMalformedObject) {
		t.Errorf("expected ErrMalformedObject, got %v", err)
	}
}

func TestIndirectLength(t *testing.T) {
	data := pdftest.Build("1.7", []pdftest.Object{
		{Num: 1, Body: "<< /Type /Catalog /Pages 2 0 R >>"},
		{Num: 2, Body: "<< /Type /Pages /Kids [3 0 R] /Count 1 >>"},
		{Num: 3, Body: "<< /Type /Page /Parent 2 0 R /Contents 4 0 R >>"},
		{Num: 4, Body: "<< /Length 5 0 R >>\nstream\nBT ET\nendstream"},
		{Num: 5, Body: "5"},
	}, "/Root 1 0 R")

	doc, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	obj, _ := doc.Object("obj4")
	if s := obj.(*core.Stream); string(s.Data) != "BT ET" {
		t.Errorf("stream data = %q, want %q", s.Data, "BT ET")
	}
}

func TestMissingEndstream(t *testing.T) {
	data := pdftest.Build("1.7", []pdftest.Object{
		{Num: 1, Body: "<< /Type /Catalog >>"},
		{Num: 2, Body: "<< /Length 100 >>\nstream\nabc"},
	}, "/Root 1 0 R")

	_, err := Parse(data, "")
	if !errors.Is(err, core.ErrInvalidStreamData) {
		t.Fatalf("expected ErrInvalidStreamData, got %v", err)
	}
	var ise *core.InvalidStreamDataError
	if !errors.As(err, &ise) || ise.ID != "obj2" {
		t.Errorf("error should name obj2, got %v", err)
	}
}

func TestDanglingReferencesReadAsNull(t *testing.T) {
	data := pdftest.Build("1.7", []pdftest.Object{
		{Num: 1, Body: "<< /Type /Catalog /Pages 2 0 R /Outlines 9 0 R >>"},
		{Num: 2, Body: "<< /Type /Pages /Kids [] /Count 0 >>"},
	}, "/Root 1 0 R /Info 8 0 R")

	doc, err := Parse(data, "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	catalog, _ := doc.Catalog()
	if _, ok := catalog["Outlines"].(core.Null); !ok {
		t.Errorf("Outlines = %v, want null", catalog["Outlines"])
	}
	if _, ok := doc.Trailer["Info"].(core.Null); !ok {
		t.Errorf("trailer Info = %v, want null", doc.Trailer["Info"])
	}
}

func xrefStreamFile() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.5\n")
	offsets := map[int]int{}
	write := func(num int, body string) {
		offsets[num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", num, body)
	}

	write(1, "<< /Type /Catalog /Pages 3 0 R >>")
	pagesObj := "<< /Type /Pages /Kids [4 0 R] /Count 1 >>"
	pageObj := "<< /Type /Page /Parent 3 0 R /MediaBox [0 0 10 10] >>"
	header := fmt.Sprintf("3 0 4 %d ", len(pagesObj)+1)
	write(2, pdftest.Stream(
		fmt.Sprintf("/Type /ObjStm /N 2 /First %d", len(header)),
		[]byte(header+pagesObj+" "+pageObj),
	))

	xrefOffset := buf.Len()
	row := func(kind byte, f2 int, f3 byte) []byte {
		return []byte{kind, byte(f2 >> 8), byte(f2), f3}
	}
	var rows []byte
	rows = append(rows, row(0, 0, 0xff)...)
	rows = append(rows, row(1, offsets[1], 0)...)
	rows = append(rows, row(1, offsets[2], 0)...)
	rows = append(rows, row(2, 2, 0)...)
	rows = append(rows, row(2, 2, 1)...)
	rows = append(rows, row(1, xrefOffset, 0)...)
	write(5, pdftest.Stream("/Type /XRef /Size 6 /W [1 2 1] /Root 1 0 R", rows))

	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return buf.Bytes()
}

func TestXRefStreamAndObjectStream(t *testing.T) {
	doc, err := Parse(xrefStreamFile(), "")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []string{"obj1", "obj3", "obj4"}
	if got := doc.IDs(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("IDs = %v, want %v", got, want)
	}
	if root, _ := doc.Trailer.GetRef("Root"); root != "obj1" {
		t.Errorf("Root = %q", root)
	}

	obj, _ := doc.Object("obj4")
	page, ok := obj.(core.Dict)
	if !ok {
		t.Fatalf("obj4 is %T, want dict", obj)
	}
	if typ, _ := page.GetName("Type"); typ != "Page" {
		t.Errorf("obj4 Type = %q", typ)
	}
	if parent, _ := page.GetRef("Parent"); parent != "obj3" {
		t.Errorf("obj4 Parent = %q", parent)
	}
}

func TestReconstruction(t *testing.T) {
	good := pdftest.Pages("q Q", "BT ET")

	t.Run("damaged xref keyword", func(t *testing.T) {
		data := bytes.Replace(good, []byte("xref\n0 "), []byte("xerf\n0 "), 1)
		doc, err := Parse(data, "")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if doc.Len() != 6 {
			t.Errorf("Len = %d, want 6", doc.Len())
		}
		if root, _ := doc.Trailer.GetRef("Root"); root != "obj1" {
			t.Errorf("Root = %q", root)
		}

		if _, err := Parse(data, "", WithoutRecovery()); err == nil {
			t.Errorf("expected an error without recovery")
		}
	})

	t.Run("truncated before xref", func(t *testing.T) {
		data := good[:bytes.Index(good, []byte("xref\n0 "))]
		doc, err := Parse(data, "")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		if root, _ := doc.Trailer.GetRef("Root"); root != "obj1" {
			t.Errorf("catalog should be found by scan, Root = %q", root)
		}
	})

	t.Run("wrong object offset", func(t *testing.T) {
		// object 1 starts right after the 15 byte header
		data := bytes.Replace(good, []byte("0000000015 00000 n"), []byte("0000000016 00000 n"), 1)
		if bytes.Equal(data, good) {
			t.Fatalf("fixture did not contain the expected xref line")
		}
		doc, err := Parse(data, "")
		if err != nil {
			t.Fatalf("Parse failed: %v", err)
		}
		catalog, err := doc.Catalog()
		if err != nil {
			t.Fatalf("Catalog failed: %v", err)
		}
		if typ, _ := catalog.GetName("Type"); typ != "Catalog" {
			t.Errorf("catalog Type = %q", typ)
		}
	})
}

func encryptedFile(t *testing.T, revision int, perms int32) []byte {
	t.Helper()
	encDict, h, err := security.NewEncryption("user", "owner", perms, fileID, revision)
	if err != nil {
		t.Fatalf("NewEncryption failed: %v", err)
	}

	plain := map[int]core.Object{
		1: core.Dict{"Type": core.Name("Catalog"), "Pages": core.Ref("obj2")},
		2: core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{core.Ref("obj3")}, "Count": core.Number(1)},
		3: core.Dict{"Type": core.Name("Page"), "Parent": core.Ref("obj2"), "Contents": core.Ref("obj4")},
		4: &core.Stream{Dict: core.Dict{}, Data: []byte("BT (Hello) Tj ET")},
		5: core.Dict{"Title": core.String("Quarterly report")},
	}
	refs := func(r core.Ref) (string, error) {
		return strings.TrimPrefix(string(r), "obj") + " 0 R", nil
	}

	var objects []pdftest.Object
	for num := 1; num <= 5; num++ {
		enc, err := h.Encrypt(num, 0, plain[num])
		if err != nil {
			t.Fatalf("Encrypt failed: %v", err)
		}
		if s, ok := enc.(*core.Stream); ok {
			s.Dict["Length"] = core.Number(len(s.Data))
		}
		var buf bytes.Buffer
		if err := core.NewEncoder(&buf, refs).Encode(enc); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		objects = append(objects, pdftest.Object{Num: num, Body: buf.String()})
	}
	body, err := core.Format(encDict)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	objects = append(objects, pdftest.Object{Num: 6, Body: string(body)})

	trailer := fmt.Sprintf("/Root 1 0 R /Info 5 0 R /Encrypt 6 0 R /ID [<%X> <%X>]", fileID, fileID)
	return pdftest.Build("1.6", objects, trailer)
}

func TestEncryptedDocuments(t *testing.T) {
	for _, rev := range []int{2, 3, 4} {
		for _, password := range []string{"user", "owner"} {
			t.Run(fmt.Sprintf("R%d %s", rev, password), func(t *testing.T) {
				doc, err := Parse(encryptedFile(t, rev, -4), password)
				if err != nil {
					t.Fatalf("Parse failed: %v", err)
				}

				info, err := doc.Info()
				if err != nil {
					t.Fatalf("Info failed: %v", err)
				}
				if title, _ := info.GetString("Title"); title != "Quarterly report" {
					t.Errorf("Title = %q", title)
				}
				obj, _ := doc.Object("obj4")
				if s := obj.(*core.Stream); string(s.Data) != "BT (Hello) Tj ET" {
					t.Errorf("content = %q", s.Data)
				}

				if doc.Trailer.Has("Encrypt") {
					t.Errorf("trailer still has Encrypt")
				}
				if doc.Has("obj6") {
					t.Errorf("Encrypt dictionary should not be part of the document")
				}
			})
		}
	}
}

func TestEncryptionErrors(t *testing.T) {
	tests := []struct {
		name     string
		perms    int32
		password string
	}{
		{"wrong password", -4, "guess"},
		{"extraction not permitted", -4 &^ security.PermExtract, "user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(encryptedFile(t, 3, tt.perms), tt.password)
			if !errors.Is(err, core.ErrEncryptionNotSupported) {
				t.Errorf("expected ErrEncryptionNotSupported, got %v", err)
			}
		})
	}

	// the owner is not bound by the permission flags
	if _, err := Parse(encryptedFile(t, 3, -4&^security.PermExtract), "owner"); err != nil {
		t.Errorf("owner password should open the document: %v", err)
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, pdftest.Pages("q Q"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	doc, err := Open(path, "")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if doc.Len() != 4 {
		t.Errorf("Len = %d, want 4", doc.Len())
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf"), ""); !errors.Is(err, core.ErrIO) {
		t.Errorf("expected ErrIO, got %v", err)
	}
}

func TestGetObjectCaching(t *testing.T) {
	r, err := NewReader(pdftest.Pages("q Q"), "")
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	first, err := r.GetObject(1)
	if err != nil {
		t.Fatalf("GetObject failed: %v", err)
	}
	second, _ := r.GetObject(1)
	first.(core.Dict)["Marker"] = core.Bool(true)
	if !second.(core.Dict).Has("Marker") {
		t.Errorf("second GetObject should return the cached object")
	}

	if _, err := r.GetObject(42); !errors.Is(err, core.ErrDanglingReference) {
		t.Errorf("expected ErrDanglingReference, got %v", err)
	}
	if r.Encrypted() {
		t.Errorf("plain document reported as encrypted")
	}
}
