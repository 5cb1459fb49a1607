package http

import (
	"context"
	"errors"

	"blogverse/internal/blogapi"
)

// ViewStatus es el ciclo de carga de una vista: Idle -> Loading -> (Loaded | Failed).
type ViewStatus int

const (
	ViewIdle ViewStatus = iota
	ViewLoading
	ViewLoaded
	ViewFailed
)

func (s ViewStatus) String() string {
	switch s {
	case ViewIdle:
		return "idle"
	case ViewLoading:
		return "loading"
	case ViewLoaded:
		return "loaded"
	case ViewFailed:
		return "failed"
	}
	return "unknown"
}

// ViewState es el estado local de una vista. No sobrevive a la navegacion.
type ViewState[T any] struct {
	Status ViewStatus
	Data   T
	Err    error
}

// Load ejecuta fetch una sola vez; nunca reintenta.
func Load[T any](ctx context.Context, fetch func(context.Context) (T, error)) ViewState[T] {
	st := ViewState[T]{Status: ViewLoading}
	data, err := fetch(ctx)
	if err != nil {
		st.Status = ViewFailed
		st.Err = err
		return st
	}
	st.Status = ViewLoaded
	st.Data = data
	return st
}

func (v ViewState[T]) Loaded() bool { return v.Status == ViewLoaded }
func (v ViewState[T]) Failed() bool { return v.Status == ViewFailed }

// Message es el texto a mostrar cuando la vista fallo.
func (v ViewState[T]) Message() string {
	if v.Err == nil {
		return ""
	}
	return blogapi.Message(v.Err, "Something went wrong")
}

// NotFound y Denied seleccionan el panel dedicado en lugar del banner generico.
func (v ViewState[T]) NotFound() bool { return errors.Is(v.Err, blogapi.ErrNotFound) }
func (v ViewState[T]) Denied() bool   { return errors.Is(v.Err, blogapi.ErrUnauthorized) }
