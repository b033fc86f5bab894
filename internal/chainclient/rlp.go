package chainclient

import "math/big"

// rlpEncode is a minimal Recursive-Length-Prefix encoder, enough to build
// an EIP-1559 transaction envelope, re-derived from the RLP encoding rules
// directly rather than copied from a go-ethereum-style encoder.
func rlpEncode(item interface{}) []byte {
	switch v := item.(type) {
	case []byte:
		return rlpEncodeBytes(v)
	case *big.Int:
		if v == nil || v.Sign() == 0 {
			return rlpEncodeBytes(nil)
		}
		return rlpEncodeBytes(v.Bytes())
	case uint64:
		return rlpEncodeBytes(rlpTrimmedUint(v))
	case string:
		return rlpEncodeBytes([]byte(v))
	case []interface{}:
		var payload []byte
		for _, e := range v {
			payload = append(payload, rlpEncode(e)...)
		}
		return rlpEncodeList(payload)
	default:
		panic("chainclient: rlp: unsupported type")
	}
}

func rlpTrimmedUint(v uint64) []byte {
	if v == 0 {
		return nil
	}
	b := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}

func rlpEncodeBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	return append(rlpLengthPrefix(0x80, len(b)), b...)
}

func rlpEncodeList(payload []byte) []byte {
	return append(rlpLengthPrefix(0xc0, len(payload)), payload...)
}

func rlpLengthPrefix(base byte, length int) []byte {
	if length < 56 {
		return []byte{base + byte(length)}
	}
	lenBytes := rlpTrimmedUint(uint64(length))
	return append([]byte{base + 55 + byte(len(lenBytes))}, lenBytes...)
}
