// Package pdftest builds small PDF files with correct cross-reference
// offsets for tests.
package pdftest

import (
	"bytes"
	"fmt"
)

// Object is the body of indirect object Num, without the "n 0 obj" and
// "endobj" lines.
type Object struct {
	Num  int
	Body string
}

// Build writes a PDF with a classic xref table. Objects are laid out in
// the order given; Trailer is the trailer dictionary body, e.g.
// "/Root 1 0 R". Size is filled in.
func Build(version string, objects []Object, trailer string) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%%PDF-%s\n%%\xE2\xE3\xCF\xD3\n", version)

	offsets := map[int]int{}
	maxNum := 0
	for _, obj := range objects {
		offsets[obj.Num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", obj.Num, obj.Body)
		if obj.Num > maxNum {
			maxNum = obj.Num
		}
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxNum+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for n := 1; n <= maxNum; n++ {
		if off, ok := offsets[n]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n\r\n", off)
		} else {
			buf.WriteString("0000000000 00000 f\r\n")
		}
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d %s >>\nstartxref\n%d\n%%%%EOF\n", maxNum+1, trailer, xref)
	return buf.Bytes()
}

// Stream renders a stream object body with a correct direct Length.
func Stream(dict string, data []byte) string {
	return fmt.Sprintf("<< %s /Length %d >>\nstream\n%s\nendstream", dict, len(data), data)
}

// Pages builds a minimal document: catalog 1, page tree 2 and one page
// per content string, each with its own content stream.
func Pages(contents ...string) []byte {
	objects := []Object{{Num: 1, Body: "<< /Type /Catalog /Pages 2 0 R >>"}}
	kids := ""
	num := 3
	for _, c := range contents {
		kids += fmt.Sprintf("%d 0 R ", num)
		objects = append(objects,
			Object{Num: num, Body: fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R >>", num+1)},
			Object{Num: num + 1, Body: Stream("", []byte(c))},
		)
		num += 2
	}
	objects = append(objects, Object{Num: 2, Body: fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(contents))})
	return Build("1.7", objects, "/Root 1 0 R")
}
