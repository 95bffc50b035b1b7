// Package reader turns the bytes of a PDF file into a [core.Document].
//
// # Parsing
//
// [Parse] reads a file held in memory, [Open] reads one from disk:
//
//	doc, err := reader.Parse(data, "")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Every in-use cross-reference entry becomes a top-level object named
// "obj" plus its number. Objects packed in object streams are unpacked;
// the object streams and cross-reference streams themselves are dropped
// along with the Prev and XRefStm trailer keys.
//
// # Encrypted Files
//
// Files protected by the Standard security handler (revisions 2 to 4)
// are decrypted with the given password, which may be the user or the
// owner password. The Encrypt dictionary is removed from the result.
// A wrong password or a file that forbids content extraction yields a
// [core.EncryptionError].
//
// # Damaged Files
//
// When the cross-reference data cannot be read the object table is
// rebuilt by scanning for "n g obj" headers, and wrong offsets are
// corrected the same way. [WithoutRecovery] turns this off. Problems that
// were worked around are logged at debug level through [WithLogger].
package reader
