package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/rc4"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tsawler/pdfgraph/core"
)

// PermExtract is the permission bit that allows copying or otherwise
// extracting text and graphics.
const PermExtract = 1 << 4

var passwordPadding = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

var errBadPassword = errors.New("password does not open the document")

type cryptAlgo int

const (
	algoNone cryptAlgo = iota
	algoRC4
	algoAES
)

// StandardHandler decrypts documents protected by the Standard security
// handler, revisions 2 to 4 (RC4 and AES-128).
type StandardHandler struct {
	v, r        int
	keyLen      int
	o, u        []byte
	p           int32
	fileID      []byte
	encryptMeta bool
	streamAlgo  cryptAlgo
	stringAlgo  cryptAlgo

	key   []byte
	owner bool
}

// NewStandardHandler reads an Encrypt dictionary. fileID is the first
// element of the trailer ID array. Handlers other than Standard and
// revisions outside 2..4 are an *core.EncryptionError.
func NewStandardHandler(encrypt core.Dict, fileID []byte) (*StandardHandler, error) {
	if filter, _ := encrypt.GetName("Filter"); filter != "Standard" {
		return nil, &core.EncryptionError{Reason: fmt.Sprintf("security handler %q", filter)}
	}
	if sub, ok := encrypt.GetName("SubFilter"); ok && sub != "" {
		return nil, &core.EncryptionError{Reason: fmt.Sprintf("security handler subfilter %q", sub)}
	}

	v, _ := encrypt.GetInt("V")
	r, _ := encrypt.GetInt("R")
	if r < 2 || r > 4 || v > 4 {
		return nil, &core.EncryptionError{Reason: fmt.Sprintf("encryption V%d R%d", v, r)}
	}

	keyBits := 40
	if n, ok := encrypt.GetInt("Length"); ok && n > 0 {
		keyBits = n
	}
	if v == 1 {
		keyBits = 40
	}
	if v == 4 {
		keyBits = 128
	}
	if keyBits%8 != 0 || keyBits < 40 || keyBits > 128 {
		return nil, &core.EncryptionError{Reason: fmt.Sprintf("key length %d", keyBits)}
	}

	o, _ := encrypt.GetString("O")
	u, _ := encrypt.GetString("U")
	if len(o) < 32 || len(u) < 32 {
		return nil, &core.EncryptionError{Reason: "O and U entries must be 32 bytes"}
	}
	p, _ := encrypt.GetNumber("P")

	h := &StandardHandler{
		v:           v,
		r:           r,
		keyLen:      keyBits / 8,
		o:           []byte(o[:32]),
		u:           []byte(u[:32]),
		p:           int32(int64(p)),
		fileID:      fileID,
		encryptMeta: true,
		streamAlgo:  algoRC4,
		stringAlgo:  algoRC4,
	}
	if b, ok := encrypt.GetBool("EncryptMetadata"); ok {
		h.encryptMeta = bool(b)
	}

	if v == 4 {
		var err error
		if h.streamAlgo, err = cryptFilter(encrypt, "StmF"); err != nil {
			return nil, err
		}
		if h.stringAlgo, err = cryptFilter(encrypt, "StrF"); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// cryptFilter resolves StmF or StrF through the CF dictionary.
func cryptFilter(encrypt core.Dict, key string) (cryptAlgo, error) {
	name, _ := encrypt.GetName(key)
	if name == "" || name == "Identity" {
		return algoNone, nil
	}
	cf, _ := encrypt.GetDict("CF")
	entry, ok := cf.GetDict(string(name))
	if !ok {
		return algoNone, &core.EncryptionError{Reason: fmt.Sprintf("crypt filter %s not defined", name)}
	}
	method, _ := entry.GetName("CFM")
	switch method {
	case "V2":
		return algoRC4, nil
	case "AESV2":
		return algoAES, nil
	case "None", "":
		return algoNone, nil
	}
	return algoNone, &core.EncryptionError{Reason: fmt.Sprintf("crypt filter method %s", method)}
}

// Authenticate tries password as the user password and then as the owner
// password. The empty password opens documents that have no user
// password.
func (h *StandardHandler) Authenticate(password string) error {
	pwd := []byte(password)
	if key := h.userKey(pwd); key != nil {
		h.key = key
		h.owner = false
		return nil
	}
	if key := h.userKey(h.recoverUserPassword(pwd)); key != nil {
		h.key = key
		h.owner = true
		return nil
	}
	return &core.EncryptionError{Reason: errBadPassword.Error()}
}

// Owner reports whether the owner password was supplied
func (h *StandardHandler) Owner() bool { return h.owner }

// Permissions returns the P entry
func (h *StandardHandler) Permissions() int32 { return h.p }

// CanExtract reports whether content may be extracted: either the
// permission bit is set or the owner password was given.
func (h *StandardHandler) CanExtract() bool {
	return h.owner || h.p&PermExtract != 0
}

// userKey derives the file key from a user password and returns it when
// the password checks out against U.
func (h *StandardHandler) userKey(pwd []byte) []byte {
	key := h.fileKey(pwd)
	if bytes.Equal(h.computeU(key)[:16], h.u[:16]) {
		return key
	}
	return nil
}

// fileKey is algorithm 2 of the Standard handler.
func (h *StandardHandler) fileKey(pwd []byte) []byte {
	d := md5.New()
	d.Write(padPassword(pwd))
	d.Write(h.o)
	var pBuf [4]byte
	binary.LittleEndian.PutUint32(pBuf[:], uint32(h.p))
	d.Write(pBuf[:])
	d.Write(h.fileID)
	if h.r >= 4 && !h.encryptMeta {
		d.Write([]byte{0xFF, 0xFF, 0xFF, 0xFF})
	}
	sum := d.Sum(nil)
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(sum[:h.keyLen])
			sum = s[:]
		}
	}
	return sum[:h.keyLen]
}

// computeU is algorithms 4 (R2) and 5 (R3+). Only the first 16 bytes are
// significant for R3 and later.
func (h *StandardHandler) computeU(key []byte) []byte {
	if h.r == 2 {
		return rc4XOR(key, passwordPadding)
	}
	d := md5.New()
	d.Write(passwordPadding)
	d.Write(h.fileID)
	out := rc4XOR(key, d.Sum(nil))
	for i := 1; i <= 19; i++ {
		out = rc4XOR(xorKey(key, byte(i)), out)
	}
	return append(out, make([]byte, 16)...)
}

// ownerKey is the RC4 key derived from the owner password (algorithm 3).
func (h *StandardHandler) ownerKey(ownerPwd []byte) []byte {
	sum := md5.Sum(padPassword(ownerPwd))
	key := sum[:]
	n := 5
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(key)
			key = s[:]
		}
		n = h.keyLen
	}
	return key[:n]
}

// recoverUserPassword decrypts O with the owner password, giving the
// padded user password (algorithm 7).
func (h *StandardHandler) recoverUserPassword(ownerPwd []byte) []byte {
	key := h.ownerKey(ownerPwd)
	if h.r == 2 {
		return rc4XOR(key, h.o)
	}
	out := append([]byte{}, h.o...)
	for i := 19; i >= 0; i-- {
		out = rc4XOR(xorKey(key, byte(i)), out)
	}
	return out
}

// objectKey is algorithm 1: the file key extended with the object number
// and generation.
func (h *StandardHandler) objectKey(num, gen int, algo cryptAlgo) []byte {
	k := make([]byte, 0, len(h.key)+9)
	k = append(k, h.key...)
	k = append(k, byte(num), byte(num>>8), byte(num>>16), byte(gen), byte(gen>>8))
	if algo == algoAES {
		k = append(k, "sAlT"...)
	}
	sum := md5.Sum(k)
	n := len(h.key) + 5
	if n > 16 {
		n = 16
	}
	return sum[:n]
}

func (h *StandardHandler) crypt(num, gen int, data []byte, algo cryptAlgo, encrypt bool) ([]byte, error) {
	if h.key == nil {
		return nil, &core.EncryptionError{Reason: "handler is not authenticated"}
	}
	switch algo {
	case algoRC4:
		return rc4XOR(h.objectKey(num, gen, algo), data), nil
	case algoAES:
		key := h.objectKey(num, gen, algo)
		if encrypt {
			return aesEncrypt(key, data)
		}
		return aesDecrypt(key, data)
	}
	return data, nil
}

// DecryptString decrypts a string belonging to object num gen
func (h *StandardHandler) DecryptString(num, gen int, data []byte) ([]byte, error) {
	return h.crypt(num, gen, data, h.stringAlgo, false)
}

// DecryptStream decrypts the data of stream object num gen
func (h *StandardHandler) DecryptStream(num, gen int, data []byte) ([]byte, error) {
	return h.crypt(num, gen, data, h.streamAlgo, false)
}

// Decrypt returns obj, read as object num gen, with every string and
// stream decrypted. Cross-reference streams are never encrypted, and
// metadata streams are left alone when EncryptMetadata is false.
func (h *StandardHandler) Decrypt(num, gen int, obj core.Object) (core.Object, error) {
	return h.walk(num, gen, obj, false)
}

// Encrypt is the inverse of Decrypt. It is used to produce protected test
// documents.
func (h *StandardHandler) Encrypt(num, gen int, obj core.Object) (core.Object, error) {
	return h.walk(num, gen, obj, true)
}

func (h *StandardHandler) walk(num, gen int, obj core.Object, encrypt bool) (core.Object, error) {
	switch v := obj.(type) {
	case core.String:
		out, err := h.crypt(num, gen, []byte(v), h.stringAlgo, encrypt)
		if err != nil {
			return nil, fmt.Errorf("object %d string: %w", num, err)
		}
		return core.String(out), nil
	case core.Array:
		out := make(core.Array, len(v))
		for i, item := range v {
			d, err := h.walk(num, gen, item, encrypt)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case core.Dict:
		out := make(core.Dict, len(v))
		for key, item := range v {
			d, err := h.walk(num, gen, item, encrypt)
			if err != nil {
				return nil, err
			}
			out[key] = d
		}
		return out, nil
	case *core.Stream:
		typ, _ := v.Dict.GetName("Type")
		if typ == "XRef" {
			return v, nil
		}
		dict, err := h.walk(num, gen, v.Dict, encrypt)
		if err != nil {
			return nil, err
		}
		data := v.Data
		if typ != "Metadata" || h.encryptMeta {
			data, err = h.crypt(num, gen, v.Data, h.streamAlgo, encrypt)
			if err != nil {
				return nil, fmt.Errorf("object %d stream: %w", num, err)
			}
		}
		return &core.Stream{Dict: dict.(core.Dict), Encoding: v.Encoding, Data: data}, nil
	}
	return obj, nil
}

func padPassword(pwd []byte) []byte {
	padded := make([]byte, 32)
	n := copy(padded, pwd)
	copy(padded[n:], passwordPadding)
	return padded
}

func xorKey(key []byte, b byte) []byte {
	out := make([]byte, len(key))
	for i := range key {
		out[i] = key[i] ^ b
	}
	return out
}

func rc4XOR(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

func aesDecrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data) < aes.BlockSize {
		return nil, errors.New("aes ciphertext too short")
	}
	iv := data[:aes.BlockSize]
	ct := data[aes.BlockSize:]
	if len(ct)%aes.BlockSize != 0 {
		return nil, errors.New("aes ciphertext not multiple of blocksize")
	}
	out := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ct)
	if len(out) == 0 {
		return out, nil
	}
	pad := int(out[len(out)-1])
	if pad <= 0 || pad > aes.BlockSize || pad > len(out) {
		return nil, errors.New("invalid aes padding")
	}
	return out[:len(out)-pad], nil
}

// aesEncrypt uses a fixed IV derived from the key so that test documents
// are reproducible.
func aesEncrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	ivSum := md5.Sum(key)
	iv := ivSum[:aes.BlockSize]
	padLen := aes.BlockSize - len(data)%aes.BlockSize
	plain := append(append([]byte{}, data...), bytes.Repeat([]byte{byte(padLen)}, padLen)...)
	out := make([]byte, aes.BlockSize+len(plain))
	copy(out, iv)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], plain)
	return out, nil
}
