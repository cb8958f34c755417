package service

// Result is the envelope returned to presentation layers. Failures never
// surface as errors, they are reported in Error with OK set to false.
type Result[T any] struct {
	OK    bool   `json:"ok"`
	Data  T      `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func ok[T any](data T) Result[T] {
	return Result[T]{OK: true, Data: data}
}

func fail[T any](err error) Result[T] {
	return Result[T]{Error: err.Error()}
}

func resultOf[T any](data T, err error) Result[T] {
	if err != nil {
		return fail[T](err)
	}
	return ok(data)
}
