package fast

import "github.com/hpvpu/rvvgold/rvvgo/isa"

// Element-width helpers over native 64 bit words.
// Elements are at most 32 bits and wide elements at most 64, so every
// intermediate product and sum of the standard path fits in a uint64/int64.

type U64 = uint64

func maskOf(bits uint64) U64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << bits) - 1
}

func trunc(v U64, bits uint64) U64 {
	return and64(v, maskOf(bits))
}

// signExtend sign-extends the low bits of v to 64 bits.
func signExtend(v U64, bits uint64) U64 {
	v = trunc(v, bits)
	switch and64(v, shl64(bits-1, 1)) {
	case 0:
		return v
	default:
		// fill with ones, by or-ing
		return or64(v, not64(maskOf(bits)))
	}
}

func toSigned(v U64, sew isa.SEW) int64 {
	return int64(signExtend(v, sew.Bits()))
}

func toUnsigned(v int64, bits uint64) U64 {
	return trunc(uint64(v), bits)
}

func clampS(v int64, bits uint64) int64 {
	hi := int64(maskOf(bits - 1))
	lo := -hi - 1
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

func clampU(v U64, bits uint64) U64 {
	if m := maskOf(bits); v > m {
		return m
	}
	return v
}

func b2u(b bool) U64 {
	if b {
		return 1
	}
	return 0
}

func not64(x U64) U64 {
	return ^x
}

func and64(x, y U64) U64 {
	return x & y
}

func or64(x, y U64) U64 {
	return x | y
}

func xor64(x, y U64) U64 {
	return x ^ y
}

// shl64 shifts y left by x, argument order as in yul.
func shl64(x, y U64) U64 {
	return y << x
}

// shr64 shifts y right by x, argument order as in yul.
func shr64(x, y U64) U64 {
	return y >> x
}

// sar64 shifts y right arithmetically by x, argument order as in yul.
func sar64(x, y U64) U64 {
	return U64(int64(y) >> x)
}
