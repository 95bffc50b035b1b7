// Package source fetches the bytes of a PDF document from a path or a URL.
//
// [FileLoader] reads local files, but only when AllowLocal is set.
// [HTTPLoader] fetches http and https URLs with a timeout and a size
// limit. [Auto] picks one of the two from the location:
//
//	loader := source.NewAuto(false, logger)
//	data, err := loader.Load(ctx, "https://example.com/report.pdf")
//
// Every failure is a [core.IOError] whose cause carries a stack trace.
package source
