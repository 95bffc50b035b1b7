package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/pdfgraph/core"
	"github.com/tsawler/pdfgraph/security"
)

// maxRefChain bounds how many references resolve follows before giving up
const maxRefChain = 32

// Option configures a Reader
type Option func(*Reader)

// WithLogger sets the logger used for recoverable problems in the file.
// The default discards everything.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithoutRecovery makes damaged cross-reference data an error instead of
// rebuilding the object table from the object headers in the file.
func WithoutRecovery() Option {
	return func(r *Reader) {
		r.recovery = false
	}
}

// Reader loads the objects of one PDF file held in memory
type Reader struct {
	data     []byte
	password string
	logger   *slog.Logger
	recovery bool

	version    string
	xref       *core.XRefTable
	trailer    core.Dict
	security   *security.StandardHandler
	encryptNum int

	objCache   map[int]core.Object
	objStreams map[int]*core.ObjectStream
	loading    map[int]bool
	scanned    map[int]*core.XRefEntry
}

// Parse reads data as a PDF file and returns its document. The password
// is only consulted when the file is encrypted; the empty string tries
// the empty user password.
func Parse(data []byte, password string, opts ...Option) (*core.Document, error) {
	r, err := NewReader(data, password, opts...)
	if err != nil {
		return nil, err
	}
	return r.Document()
}

// Open reads the named file and parses it
func Open(filename, password string, opts ...Option) (*core.Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &core.IOError{Location: filename, Err: err}
	}
	return Parse(data, password, opts...)
}

// NewReader checks the header, loads the cross-reference data and, for an
// encrypted file, authenticates the password.
func NewReader(data []byte, password string, opts ...Option) (*Reader, error) {
	r := &Reader{
		data:       data,
		password:   password,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		recovery:   true,
		objCache:   make(map[int]core.Object),
		objStreams: make(map[int]*core.ObjectStream),
		loading:    make(map[int]bool),
	}
	for _, opt := range opts {
		opt(r)
	}

	version, err := parseHeader(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	r.version = version

	if err := r.loadXRef(); err != nil {
		return nil, fmt.Errorf("failed to load xref: %w", err)
	}
	if err := r.setupSecurity(); err != nil {
		return nil, err
	}
	return r, nil
}

// Version returns the header version, e.g. "1.7"
func (r *Reader) Version() string { return r.version }

// Trailer returns the trailer as found in the file
func (r *Reader) Trailer() core.Dict { return r.trailer }

// Encrypted reports whether the file carried an Encrypt dictionary
func (r *Reader) Encrypted() bool { return r.security != nil }

var versionPattern = regexp.MustCompile(`^(\d+)\.(\d+)`)

// parseHeader finds %PDF-x.y. Some producers put junk in front of the
// header, so the first kilobyte is searched.
func parseHeader(data []byte) (string, error) {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	idx := bytes.Index(head, []byte("%PDF-"))
	if idx < 0 {
		return "", core.Malformed("missing %%PDF- header")
	}
	m := versionPattern.FindSubmatch(data[idx+5:])
	if m == nil {
		return "", &core.MalformedObjectError{Offset: idx, Reason: "invalid version in header"}
	}
	return fmt.Sprintf("%s.%s", m[1], m[2]), nil
}

func (r *Reader) loadXRef() error {
	off, err := core.FindStartXRef(r.data)
	if err == nil {
		table, lerr := core.LoadXRef(r.data, off)
		if lerr == nil {
			r.xref = table
			r.trailer = table.Trailer
			return nil
		}
		err = lerr
	}
	if !r.recovery {
		return err
	}
	r.logger.Warn("cross-reference data is damaged, rebuilding from object headers", "error", err)
	return r.reconstruct()
}

var objectHeader = regexp.MustCompile(`(\d+)[\x00\t\n\f\r ]+(\d+)[\x00\t\n\f\r ]+obj\b`)

// scanObjects finds every "n g obj" header in the file. A later
// definition of the same number replaces an earlier one, as an
// incremental update would.
func (r *Reader) scanObjects() map[int]*core.XRefEntry {
	if r.scanned != nil {
		return r.scanned
	}
	r.scanned = make(map[int]*core.XRefEntry)
	for _, m := range objectHeader.FindAllSubmatchIndex(r.data, -1) {
		if m[0] > 0 {
			if prev := r.data[m[0]-1]; !core.IsWhitespace(prev) && !core.IsDelimiter(prev) {
				continue
			}
		}
		num, err := strconv.Atoi(string(r.data[m[2]:m[3]]))
		if err != nil {
			continue
		}
		gen, _ := strconv.Atoi(string(r.data[m[4]:m[5]]))
		r.scanned[num] = &core.XRefEntry{Offset: m[0], Generation: gen, InUse: true}
	}
	return r.scanned
}

// reconstruct builds the object table from a scan of the file. Trailer
// dictionaries are merged with later ones winning; a missing Root is
// looked for once the objects are loaded.
func (r *Reader) reconstruct() error {
	entries := r.scanObjects()
	if len(entries) == 0 {
		return core.Malformed("no objects found in file")
	}
	table := core.NewXRefTable()
	for num, entry := range entries {
		table.Entries[num] = entry
	}

	kw := []byte("trailer")
	for pos := 0; ; {
		i := bytes.Index(r.data[pos:], kw)
		if i < 0 {
			break
		}
		pos += i + len(kw)
		p := core.NewParser(r.data)
		p.Lexer().SetPos(pos)
		obj, err := p.ParseObject()
		if err != nil {
			continue
		}
		if d, ok := obj.(core.Dict); ok {
			for k, v := range d {
				table.Trailer[k] = v
			}
		}
	}

	r.xref = table
	r.trailer = table.Trailer
	r.logger.Debug("rebuilt object table", "objects", len(entries))
	return nil
}

func (r *Reader) setupSecurity() error {
	encObj, ok := r.trailer["Encrypt"]
	if !ok {
		return nil
	}
	if ref, ok := encObj.(core.Ref); ok {
		r.encryptNum, _ = refNumber(ref)
	}
	encObj, err := r.resolve(encObj)
	if err != nil {
		return fmt.Errorf("failed to load Encrypt dictionary: %w", err)
	}
	dict, ok := encObj.(core.Dict)
	if !ok {
		return &core.EncryptionError{Reason: "Encrypt entry is not a dictionary"}
	}

	var fileID []byte
	if idObj, err := r.resolve(r.trailer["ID"]); err == nil {
		if ids, ok := idObj.(core.Array); ok && len(ids) > 0 {
			if s, ok := ids[0].(core.String); ok {
				fileID = []byte(s)
			}
		}
	}

	h, err := security.NewStandardHandler(dict, fileID)
	if err != nil {
		return err
	}
	if err := h.Authenticate(r.password); err != nil {
		return err
	}
	if !h.CanExtract() {
		return &core.EncryptionError{Reason: "document permissions do not allow content extraction"}
	}
	r.security = h

	// anything loaded while reading the Encrypt entry is still ciphertext
	r.objCache = make(map[int]core.Object)
	r.objStreams = make(map[int]*core.ObjectStream)
	return nil
}

// GetObject loads object num, decrypting it when the file is encrypted.
// Objects are cached.
func (r *Reader) GetObject(num int) (core.Object, error) {
	if obj, ok := r.objCache[num]; ok {
		return obj, nil
	}
	entry, ok := r.xref.Entries[num]
	if !ok || !entry.InUse {
		return nil, &core.DanglingReferenceError{ID: core.ObjectID(num)}
	}
	if r.loading[num] {
		return nil, core.Malformed("object %d depends on itself while loading", num)
	}
	r.loading[num] = true
	defer delete(r.loading, num)

	var obj core.Object
	var err error
	if entry.Compressed {
		obj, err = r.loadCompressed(num, entry)
	} else {
		obj, err = r.loadAt(num, entry)
		if err == nil && r.security != nil && num != r.encryptNum {
			obj, err = r.security.Decrypt(num, entry.Generation, obj)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", num, err)
	}
	r.objCache[num] = obj
	return obj, nil
}

// loadAt parses the object at its xref offset. A wrong offset in a
// damaged file falls back to the offset found by scanning.
func (r *Reader) loadAt(num int, entry *core.XRefEntry) (core.Object, error) {
	obj, err := r.parseAt(num, entry.Offset)
	if err == nil || !r.recovery || errors.Is(err, core.ErrInvalidStreamData) {
		return obj, err
	}
	scanned, ok := r.scanObjects()[num]
	if !ok || scanned.Offset == entry.Offset {
		return nil, err
	}
	r.logger.Debug("xref offset is wrong, using scanned offset",
		"object", num, "xref", entry.Offset, "scanned", scanned.Offset)
	return r.parseAt(num, scanned.Offset)
}

func (r *Reader) parseAt(num, offset int) (core.Object, error) {
	if offset < 0 || offset >= len(r.data) {
		return nil, core.Malformed("offset %d out of range", offset)
	}
	p := core.NewParser(r.data)
	p.Lexer().SetPos(offset)
	p.SetLengthResolver(r.resolveLength)
	got, obj, err := p.ParseIndirectObject()
	if err != nil {
		return nil, err
	}
	if got != num {
		return nil, &core.MalformedObjectError{Offset: offset, Reason: fmt.Sprintf("found object %d instead", got)}
	}
	return obj, nil
}

// resolveLength supplies a stream Length held in another object
func (r *Reader) resolveLength(ref core.Ref) (int, bool) {
	num, ok := refNumber(ref)
	if !ok {
		return 0, false
	}
	obj, err := r.GetObject(num)
	if err != nil {
		r.logger.Debug("indirect stream length unavailable", "ref", string(ref), "error", err)
		return 0, false
	}
	n, ok := obj.(core.Number)
	if !ok || n < 0 {
		return 0, false
	}
	return int(n), true
}

func (r *Reader) loadCompressed(num int, entry *core.XRefEntry) (core.Object, error) {
	stm, err := r.objectStream(entry.StreamNum)
	if err != nil {
		return nil, err
	}
	got, obj, err := stm.Object(entry.Index)
	if err != nil {
		return nil, err
	}
	if got != num {
		return nil, core.Malformed("object stream %d holds object %d at index %d", entry.StreamNum, got, entry.Index)
	}
	return obj, nil
}

func (r *Reader) objectStream(num int) (*core.ObjectStream, error) {
	if stm, ok := r.objStreams[num]; ok {
		return stm, nil
	}
	obj, err := r.GetObject(num)
	if err != nil {
		return nil, err
	}
	s, ok := obj.(*core.Stream)
	if !ok {
		return nil, core.Malformed("object %d is not an object stream", num)
	}
	stm, err := core.OpenObjectStream(s, r.resolve)
	if err != nil {
		return nil, fmt.Errorf("object stream %d: %w", num, err)
	}
	r.objStreams[num] = stm
	return stm, nil
}

func (r *Reader) resolve(obj core.Object) (core.Object, error) {
	for i := 0; i < maxRefChain; i++ {
		ref, ok := obj.(core.Ref)
		if !ok {
			return obj, nil
		}
		num, ok := refNumber(ref)
		if !ok {
			return nil, &core.DanglingReferenceError{ID: string(ref)}
		}
		next, err := r.GetObject(num)
		if err != nil {
			return nil, err
		}
		obj = next
	}
	return nil, core.Malformed("reference chain longer than %d", maxRefChain)
}

// Document materializes every in-use object. Cross-reference streams,
// object streams and the Encrypt dictionary describe the file rather than
// the document and are left out. References to objects that do not exist
// read as null.
func (r *Reader) Document() (*core.Document, error) {
	doc := core.NewDocument(r.version)

	nums := make([]int, 0, len(r.xref.Entries))
	for num, entry := range r.xref.Entries {
		if num > 0 && entry.InUse {
			nums = append(nums, num)
		}
	}
	sort.Ints(nums)

	var xrefDicts []core.Dict
	for _, num := range nums {
		if r.security != nil && num == r.encryptNum {
			continue
		}
		obj, err := r.GetObject(num)
		if err != nil {
			return nil, err
		}
		if s, ok := obj.(*core.Stream); ok {
			switch t, _ := s.Dict.GetName("Type"); t {
			case "XRef":
				xrefDicts = append(xrefDicts, s.Dict)
				r.logger.Debug("dropping cross-reference stream", "object", num)
				continue
			case "ObjStm":
				r.logger.Debug("dropping object stream", "object", num)
				continue
			}
		}
		doc.SetObject(core.ObjectID(num), obj)
	}

	doc.Trailer = r.documentTrailer(doc, xrefDicts)
	if err := nullDangling(doc, r.logger); err != nil {
		return nil, err
	}
	return doc, nil
}

// documentTrailer copies the trailer without the keys that only describe
// the file layout or its encryption, filling in a Root when the trailer
// was lost.
func (r *Reader) documentTrailer(doc *core.Document, xrefDicts []core.Dict) core.Dict {
	trailer := make(core.Dict, len(r.trailer))
	for k, v := range r.trailer {
		switch k {
		case "Prev", "XRefStm", "Encrypt":
			continue
		}
		trailer[k] = v
	}
	if trailer.Has("Root") {
		return trailer
	}

	for i := len(xrefDicts) - 1; i >= 0; i-- {
		for _, key := range []string{"Root", "Info", "ID"} {
			if v, ok := xrefDicts[i][key]; ok && !trailer.Has(key) {
				trailer[key] = v
			}
		}
	}
	if trailer.Has("Root") {
		return trailer
	}
	for _, id := range doc.IDs() {
		obj, _ := doc.Object(id)
		if d, ok := obj.(core.Dict); ok {
			if t, _ := d.GetName("Type"); t == "Catalog" {
				r.logger.Debug("using catalog found by scan", "object", id)
				trailer["Root"] = core.Ref(id)
				break
			}
		}
	}
	return trailer
}

type danglingFinder struct {
	core.BaseVisitor
	doc   *core.Document
	paths []core.Path
}

func (f *danglingFinder) VisitRef(ref core.Ref, path core.Path) error {
	if !f.doc.Has(string(ref)) {
		f.paths = append(f.paths, path.Clone())
	}
	return nil
}

// nullDangling replaces references to missing objects with null, which is
// what such a reference means in a PDF file.
func nullDangling(doc *core.Document, logger *slog.Logger) error {
	fix := func(owner string, obj core.Object) (core.Object, error) {
		f := &danglingFinder{doc: doc}
		if err := core.Walk(obj, f); err != nil {
			return nil, err
		}
		for _, path := range f.paths {
			logger.Debug("reference to missing object read as null", "owner", owner, "path", path.String())
			var err error
			if obj, err = core.Replace(obj, path, core.Null{}); err != nil {
				return nil, err
			}
		}
		return obj, nil
	}

	for _, id := range doc.IDs() {
		obj, _ := doc.Object(id)
		fixed, err := fix(id, obj)
		if err != nil {
			return err
		}
		doc.SetObject(id, fixed)
	}
	fixed, err := fix(core.TrailerID, doc.Trailer)
	if err != nil {
		return err
	}
	doc.Trailer = fixed.(core.Dict)
	return nil
}

func refNumber(ref core.Ref) (int, bool) {
	s, ok := strings.CutPrefix(string(ref), "obj")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	return n, err == nil && n > 0
}
