// Package contentstream parses PDF content streams into operator trees and
// writes them back.
//
// # Parsing
//
// [Parse] reads the operators of a content stream together with their
// operands. Operators that open a group (q, BT, BI, BMC, BDC and BX) start
// a nested [core.Content] that ends with the closing operator, so the tree
// mirrors the stream's save/restore and text object structure:
//
//	content, err := contentstream.Parse([]byte("q 1 0 0 1 0 0 cm BT /F1 12 Tf ET Q"))
//
// Inline images are read as raw bytes between ID and EI and kept on the EI
// operator.
//
// # Operator Table
//
// [Ops] lists the standard operators with their operand counts. Operators
// it does not name are kept too; they take all pending operands.
//
// # Writing
//
// [Encode] turns a tree back into stream syntax and [Flatten] lists its
// operands and operators in stream order.
//
// # Documents
//
// [Revive] parses the content of every page of a document and stores each
// tree as its own object.
package contentstream
