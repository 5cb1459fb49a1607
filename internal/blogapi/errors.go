package blogapi

import (
	"errors"
	"net/http"
)

var (
	// ErrRequestFailed coincide con cualquier respuesta no exitosa del servicio remoto.
	ErrRequestFailed = errors.New("request failed")
	// ErrNotFound coincide con un 404: el recurso no existe.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized coincide con un 403: el recurso existe pero no es del usuario.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTokenRejected coincide con un 401: el token de la sesion ya no sirve.
	ErrTokenRejected = errors.New("token rejected")
)

// RequestFailedError es el fallo de una operacion remota. Message es legible por humanos.
type RequestFailedError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *RequestFailedError) Error() string {
	return e.Message
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

func (e *RequestFailedError) Is(target error) bool {
	switch target {
	case ErrRequestFailed:
		return true
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusForbidden
	case ErrTokenRejected:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// Message extrae el mensaje legible de un error del cliente, o fallback si no es uno.
func Message(err error, fallback string) string {
	var rf *RequestFailedError
	if errors.As(err, &rf) && rf.Message != "" {
		return rf.Message
	}
	return fallback
}
