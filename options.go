package pdfgraph

// Options holds the steps a Pipeline applies between parsing and output.
type Options struct {
	password string

	// Page selection (1-indexed, in output order); nil keeps every page
	pages []int

	// Graph edits
	normalizeIDs   bool
	collectGarbage bool
	reviveContents bool

	// Output
	compressContent bool

	// Source
	allowLocal bool
}

// defaultOptions returns options that pass the document through unchanged.
func defaultOptions() Options {
	return Options{
		pages:           nil, // nil means all pages
		normalizeIDs:    false,
		collectGarbage:  false,
		reviveContents:  false,
		compressContent: false,
		allowLocal:      false,
	}
}

// clone creates a deep copy of Options.
func (o Options) clone() Options {
	newOpts := o

	// Deep copy pages slice
	if o.pages != nil {
		newOpts.pages = make([]int, len(o.pages))
		copy(newOpts.pages, o.pages)
	}

	return newOpts
}

// garbage reports whether unreachable objects should be removed. A page
// selection leaves the dropped pages unreachable, so it implies collection.
func (o Options) garbage() bool {
	return o.collectGarbage || o.pages != nil
}
