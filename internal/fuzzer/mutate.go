package fuzzer

import (
	"encoding/binary"
	"math/rand"
)

// interestingValues are little-endian 32-bit boundary values the
// interesting-values mutation overwrites 4 contiguous bytes with.
var interestingValues = []uint32{
	0x00000000,
	0xFFFFFFFF,
	0x7FFFFFFF,
	0x80000000,
	0x0000FFFF,
	0x00007FFF,
}

// bitFlip flips one random bit of one random byte. Total: an empty input
// is returned unchanged.
func bitFlip(r *rand.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	out := append([]byte(nil), data...)
	idx := r.Intn(len(out))
	bit := r.Intn(8)
	out[idx] ^= 1 << uint(bit)
	return out
}

// byteFlip XORs one random byte with 0xFF.
func byteFlip(r *rand.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	out := append([]byte(nil), data...)
	idx := r.Intn(len(out))
	out[idx] ^= 0xFF
	return out
}

// arithmetic adds or subtracts a small value (1-10) modulo 256 from one
// random byte.
func arithmetic(r *rand.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	out := append([]byte(nil), data...)
	idx := r.Intn(len(out))
	delta := byte(r.Intn(10) + 1)
	if r.Intn(2) == 0 {
		out[idx] += delta
	} else {
		out[idx] -= delta
	}
	return out
}

// interestingValuesMutation overwrites 4 contiguous bytes, little-endian,
// with one of the boundary-condition integers, appending them if the
// input is shorter than 4 bytes.
func interestingValuesMutation(r *rand.Rand, data []byte) []byte {
	if len(data) == 0 {
		return data
	}
	val := interestingValues[r.Intn(len(interestingValues))]
	if len(data) < 4 {
		chunk := make([]byte, 4)
		binary.LittleEndian.PutUint32(chunk, val)
		return append(append([]byte(nil), data...), chunk...)
	}
	out := append([]byte(nil), data...)
	idx := r.Intn(len(out) - 3)
	binary.LittleEndian.PutUint32(out[idx:idx+4], val)
	return out
}

// splice concatenates a random prefix of a with a random suffix of b.
func splice(r *rand.Rand, a, b []byte) []byte {
	if len(a) == 0 || len(b) == 0 {
		if len(a) == 0 {
			return b
		}
		return a
	}
	cut1 := r.Intn(len(a) + 1)
	cut2 := r.Intn(len(b) + 1)
	out := make([]byte, 0, cut1+len(b)-cut2)
	out = append(out, a[:cut1]...)
	out = append(out, b[cut2:]...)
	return out
}

// mutators are the equal-weight single-parent strategies mutate() chooses
// among. splice needs a second parent and is not one of them; the search
// loop in FuzzTarget applies only these four.
var mutators = []func(*rand.Rand, []byte) []byte{
	bitFlip,
	byteFlip,
	arithmetic,
	interestingValuesMutation,
}

// mutate applies exactly one randomly chosen mutation strategy to data.
func mutate(r *rand.Rand, data []byte) []byte {
	return mutators[r.Intn(len(mutators))](r, data)
}
