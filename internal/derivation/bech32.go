package derivation

import (
	"fmt"
	"strings"
)

// bech32 encoding, adapted for Bitcoin segwit (BIP173) and taproot (BIP350)
// witness-program addresses. BIP350 reuses BIP173's polymod with a different
// final checksum constant depending on witness version.
const (
	bech32Charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	bech32Const   = uint32(1)
	bech32mConst  = uint32(0x2bc830a3)
)

var bech32Generator = [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}

func bech32Polymod(values []byte) uint32 {
	chk := uint32(1)
	for _, v := range values {
		top := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i, g := range bech32Generator {
			if (top>>uint(i))&1 == 1 {
				chk ^= g
			}
		}
	}
	return chk
}

func bech32HrpExpand(hrp string) []byte {
	out := make([]byte, 0, len(hrp)*2+1)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]>>5)
	}
	out = append(out, 0)
	for i := 0; i < len(hrp); i++ {
		out = append(out, hrp[i]&31)
	}
	return out
}

func bech32Checksum(hrp string, data []byte, constant uint32) [6]byte {
	values := bech32HrpExpand(hrp)
	values = append(values, data...)
	values = append(values, 0, 0, 0, 0, 0, 0)
	polymod := bech32Polymod(values) ^ constant

	var out [6]byte
	for i := 0; i < 6; i++ {
		out[i] = byte((polymod >> uint(5*(5-i))) & 31)
	}
	return out
}

// bech32Encode encodes data (already 5-bit, see convertBits) under hrp.
// witnessVersion selects BIP173 (version 0) vs BIP350 (version 1-16)
// checksum constants.
func bech32Encode(hrp string, witnessVersion byte, data []byte) (string, error) {
	constant := bech32Const
	if witnessVersion != 0 {
		constant = bech32mConst
	}
	checksum := bech32Checksum(hrp, data, constant)
	combined := append(append([]byte{}, data...), checksum[:]...)

	var b strings.Builder
	b.WriteString(hrp)
	b.WriteByte('1')
	for _, v := range combined {
		if int(v) >= len(bech32Charset) {
			return "", fmt.Errorf("derivation: invalid bech32 value %d", v)
		}
		b.WriteByte(bech32Charset[v])
	}
	return b.String(), nil
}

// convertBits regroups a byte slice from 'from' bits per element to 'to'
// bits per element, used to pack a 20- or 32-byte witness program into the
// 5-bit alphabet bech32 requires.
func convertBits(data []byte, from, to uint, pad bool) ([]byte, error) {
	var acc, bits uint
	maxValue := uint(1)<<to - 1
	out := make([]byte, 0, len(data)*int(from)/int(to)+1)

	for _, v := range data {
		value := uint(v)
		if value>>from != 0 {
			return nil, fmt.Errorf("derivation: invalid data range for convertBits")
		}
		acc = acc<<from | value
		bits += from
		for bits >= to {
			bits -= to
			out = append(out, byte((acc>>bits)&maxValue))
		}
	}
	if pad {
		if bits > 0 {
			out = append(out, byte((acc<<(to-bits))&maxValue))
		}
	} else if bits >= from || ((acc<<(to-bits))&maxValue) != 0 {
		return nil, fmt.Errorf("derivation: invalid padding in convertBits")
	}
	return out, nil
}

// segwitAddress builds a BIP173/BIP350 witness-program address: hrp "bc",
// witness version prefixed, program regrouped to 5-bit words.
func segwitAddress(hrp string, witnessVersion byte, program []byte) (string, error) {
	words, err := convertBits(program, 8, 5, true)
	if err != nil {
		return "", err
	}
	data := append([]byte{witnessVersion}, words...)
	return bech32Encode(hrp, witnessVersion, data)
}
