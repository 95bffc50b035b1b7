package filters

// RunLengthDecode expands PackBits-style runs. A length byte n < 128
// copies n+1 literal bytes, n > 128 repeats the next byte 257-n times and
// 128 ends the data.
func RunLengthDecode(data []byte) ([]byte, error) {
	return decodeWith("RunLengthDecode", data, nil)
}

// RunLengthEncode is the inverse of RunLengthDecode.
func RunLengthEncode(data []byte) ([]byte, error) {
	return encodeWith("RunLengthDecode", data, nil)
}
