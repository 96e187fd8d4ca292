package systems

// absf returns the absolute value of a float32.
func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

// signInt returns -1, 0 or 1.
func signInt(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// clampStep moves cur toward dest by at most step and never overshoots.
func clampStep(cur, dest, step float32) float32 {
	d := dest - cur
	if absf(d) <= step {
		return dest
	}
	if d > 0 {
		return cur + step
	}
	return cur - step
}

// Hash mixes three values into a well-distributed 64-bit value
// (splitmix64 finalizer). Used wherever workers need a random choice that
// does not depend on scheduling.
func Hash(a, b, c uint64) uint64 {
	x := a*0x9e3779b97f4a7c15 ^ b*0xbf58476d1ce4e5b9 ^ c*0x94d049bb133111eb
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
