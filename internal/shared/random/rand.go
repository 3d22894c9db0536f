package random

import (
	"sync/atomic"
	"time"
)

// Lock-free SplitMix64 generator. Victim selection under the engine lock
// must not take another lock or allocate, which rules out math/rand's
// global source; crypto-quality randomness is not required for eviction.

var state atomic.Uint64

func init() {
	state.Store(seed(time.Now().UnixNano()))
}

// Uint64 advances the state atomically and returns a mixed 64-bit value.
func Uint64() uint64 {
	for {
		old := state.Load()
		x := old + 0x9e3779b97f4a7c15
		if state.CompareAndSwap(old, x) {
			return mix(x)
		}
	}
}

// IntN returns a uniform value in [0, n). n must be positive.
func IntN(n int) int {
	return int(Uint64() % uint64(n))
}

// Float64 returns a uniform in [0,1) using 53 random bits.
func Float64() float64 {
	const inv53 = 1.0 / 9007199254740992.0 // 2^53
	return float64(Uint64()>>11) * inv53
}

func mix(x uint64) uint64 {
	z := x
	z ^= z >> 30
	z *= 0xbf58476d1ce4e5b9
	z ^= z >> 27
	z *= 0x94d049bb133111eb
	z ^= z >> 31
	return z
}

func seed(s int64) uint64 {
	z := mix(uint64(s) + 0x9e3779b97f4a7c15)
	if z == 0 {
		z = 0x9e3779b97f4a7c15
	}
	return z
}
