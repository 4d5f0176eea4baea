package slow

import "github.com/holiman/uint256"

// EVM yul functions
// Every element computation is done on 256 bit words, so no sum or product of
// two 64 bit values can overflow before it is truncated to the result width.

type U256 = uint256.Int

func u256(v uint64) U256 {
	return *uint256.NewInt(v)
}

func add(x, y U256) (out U256) {
	out.Add(&x, &y)
	return
}

func sub(x, y U256) (out U256) {
	out.Sub(&x, &y)
	return
}

func mul(x, y U256) (out U256) {
	out.Mul(&x, &y)
	return
}

func not(x U256) (out U256) {
	out.Not(&x)
	return
}

func lt(x, y U256) bool {
	return x.Lt(&y)
}

func gt(x, y U256) bool {
	return x.Gt(&y)
}

func slt(x, y U256) bool {
	return x.Slt(&y)
}

func sgt(x, y U256) bool {
	return x.Sgt(&y)
}

func eq(x, y U256) bool {
	return x.Eq(&y)
}

func iszero(x U256) bool {
	return x.IsZero()
}

func and(x, y U256) (out U256) {
	out.And(&x, &y)
	return
}

func or(x, y U256) (out U256) {
	out.Or(&x, &y)
	return
}

func xor(x, y U256) (out U256) {
	out.Xor(&x, &y)
	return
}

// returns y << x
func shl(x, y U256) (out U256) {
	if !x.IsUint64() || x.Uint64() >= 256 {
		return
	}
	out.Lsh(&y, uint(x.Uint64()))
	return
}

// returns y >> x
func shr(x, y U256) (out U256) {
	if !x.IsUint64() || x.Uint64() >= 256 {
		return
	}
	out.Rsh(&y, uint(x.Uint64()))
	return
}

// returns y >> x (signed)
func sar(x, y U256) (out U256) {
	if !x.IsUint64() || x.Uint64() >= 256 {
		out.SRsh(&y, 255)
		return
	}
	out.SRsh(&y, uint(x.Uint64()))
	return
}

// signextend extends the two's complement number in the low b+1 bytes of x
func signextend(b, x U256) (out U256) {
	out.ExtendSign(&x, &b)
	return
}
