package slow

// Lane-width helpers. A lane value is kept as a 256 bit word: zero-extended
// when read unsigned, sign-extended to the full word when read signed.

// mask returns 2**bits - 1
func mask(bits uint64) U256 {
	return sub(shl(u256(bits), u256(1)), u256(1))
}

func truncTo(v U256, bits uint64) U256 {
	return and(v, mask(bits))
}

// sext reads the low bits of v as a two's complement number.
func sext(v U256, bits uint64) U256 {
	v = truncTo(v, bits)
	if bits%8 == 0 {
		return signextend(u256(bits/8-1), v)
	}
	if iszero(and(v, shl(u256(bits-1), u256(1)))) {
		return v
	}
	return or(v, not(mask(bits)))
}

// signedMax and signedMin bound a two's complement number of the given width.
func signedMax(bits uint64) U256 {
	return mask(bits - 1)
}

func signedMin(bits uint64) U256 {
	return not(signedMax(bits))
}

// clamp bounds the signed word v to [lo, hi].
func clamp(v, lo, hi U256) U256 {
	if sgt(v, hi) {
		return hi
	}
	if slt(v, lo) {
		return lo
	}
	return v
}

func bit(v U256, i uint64) U256 {
	return and(shr(u256(i), v), u256(1))
}

func b2w(b bool) U256 {
	if b {
		return u256(1)
	}
	return U256{}
}

// lane returns the result word truncated to bits as a uint64.
func lane(v U256, bits uint64) uint64 {
	t := truncTo(v, bits)
	return t.Uint64()
}
