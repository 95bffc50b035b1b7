// Package security decrypts documents protected by the Standard security
// handler with RC4 (revisions 2 and 3) or AES-128 (revision 4).
//
//	h, err := security.NewStandardHandler(encryptDict, fileID)
//	if err == nil {
//		err = h.Authenticate(password)
//	}
//	obj, err = h.Decrypt(num, gen, obj)
//
// Public-key handlers and AES-256 (revisions 5 and 6) are reported as
// [core.ErrEncryptionNotSupported].
package security
