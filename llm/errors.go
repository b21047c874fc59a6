package llm

import "errors"

// ErrUnavailable marks transport, timeout, or quota failures when reaching
// the model endpoint.
var ErrUnavailable = errors.New("model unavailable")

// ErrRefused marks requests blocked by the endpoint's safety layer.
var ErrRefused = errors.New("model refused request")
