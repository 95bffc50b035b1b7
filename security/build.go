package security

import (
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// NewEncryption creates an Encrypt dictionary for the Standard handler
// and a handler already keyed for it. Revision 2 uses 40-bit RC4,
// revision 3 128-bit RC4 and revision 4 AES-128. An empty owner password
// falls back to the user password.
func NewEncryption(userPwd, ownerPwd string, perms int32, fileID []byte, revision int) (core.Dict, *StandardHandler, error) {
	if ownerPwd == "" {
		ownerPwd = userPwd
	}
	h := &StandardHandler{
		r:           revision,
		p:           perms,
		fileID:      fileID,
		encryptMeta: true,
		streamAlgo:  algoRC4,
		stringAlgo:  algoRC4,
	}
	dict := core.Dict{
		"Filter": core.Name("Standard"),
		"R":      core.Number(revision),
		"P":      core.Number(perms),
	}
	switch revision {
	case 2:
		h.v, h.keyLen = 1, 5
	case 3:
		h.v, h.keyLen = 2, 16
		dict["Length"] = core.Number(128)
	case 4:
		h.v, h.keyLen = 4, 16
		h.streamAlgo, h.stringAlgo = algoAES, algoAES
		dict["Length"] = core.Number(128)
		dict["CF"] = core.Dict{"StdCF": core.Dict{
			"CFM":       core.Name("AESV2"),
			"AuthEvent": core.Name("DocOpen"),
			"Length":    core.Number(16),
		}}
		dict["StmF"] = core.Name("StdCF")
		dict["StrF"] = core.Name("StdCF")
	default:
		return nil, nil, &core.EncryptionError{Reason: fmt.Sprintf("cannot create revision %d", revision)}
	}
	dict["V"] = core.Number(h.v)

	// Algorithm 3: O is the padded user password encrypted with the owner key
	key := h.ownerKey([]byte(ownerPwd))
	o := rc4XOR(key, padPassword([]byte(userPwd)))
	if revision >= 3 {
		for i := 1; i <= 19; i++ {
			o = rc4XOR(xorKey(key, byte(i)), o)
		}
	}
	h.o = o

	h.key = h.fileKey([]byte(userPwd))
	h.u = h.computeU(h.key)

	dict["O"] = core.String(h.o)
	dict["U"] = core.String(h.u)
	return dict, h, nil
}
