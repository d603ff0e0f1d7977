package ptr

func Of[T any](v T) *T {
	return &v
}

func ValueOr[T any](p *T, fallback T) T {
	if nil == p {
		return fallback
	}
	return *p
}

// NonZero returns nil for the zero value of T and a pointer to v otherwise.
func NonZero[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
