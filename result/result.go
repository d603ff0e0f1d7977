package result

// Of carries either a value or the error that prevented producing it, so a
// single channel can deliver the outcome of an asynchronous operation.
type Of[T any] struct {
	v   *T
	err error
}

func Ok[T any](v *T) Of[T] {
	return Of[T]{v: v, err: nil}
}

func Err[T any](err error) Of[T] {
	return Of[T]{v: nil, err: err}
}

func (r Of[T]) Err() error {
	return r.err
}

func (r Of[T]) Unwrap() *T {
	if nil != r.err {
		panic("unwrap called on errored result: " + r.err.Error())
	}
	return r.v
}
