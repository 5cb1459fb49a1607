package service

import (
	"errors"
	"net/url"
	"strings"
)

// ErrAuthRequired se produce cuando una vista protegida se pide sin sesion valida.
// Provoca una redireccion, nunca un error en linea.
var ErrAuthRequired = errors.New("authentication required")

// GuardState refleja el estado de la sesion frente a una vista protegida.
type GuardState int

const (
	GuardUndetermined GuardState = iota
	GuardAuthenticated
	GuardUnauthenticated
)

func (s GuardState) String() string {
	switch s {
	case GuardUndetermined:
		return "undetermined"
	case GuardAuthenticated:
		return "authenticated"
	case GuardUnauthenticated:
		return "unauthenticated"
	}
	return "unknown"
}

// ResolveGuard deriva el estado solo desde la sesion; no tiene transiciones propias.
func ResolveGuard(st SessionState) GuardState {
	switch {
	case st.Loading:
		return GuardUndetermined
	case st.Token != "":
		return GuardAuthenticated
	default:
		return GuardUnauthenticated
	}
}

// GuardAction es lo que debe hacer la vista.
type GuardAction int

const (
	GuardRender GuardAction = iota
	GuardPlaceholder
	GuardRedirect
)

// GuardDecision combina la accion con el destino de la redireccion.
type GuardDecision struct {
	State    GuardState
	Action   GuardAction
	Location string
	Err      error
}

// LandingPath es el punto de entrada publico.
const LandingPath = "/landing"

// DecideGuard aplica la politica de render para la ruta pedida.
func DecideGuard(st SessionState, requested string) GuardDecision {
	state := ResolveGuard(st)
	switch state {
	case GuardUndetermined:
		return GuardDecision{State: state, Action: GuardPlaceholder}
	case GuardAuthenticated:
		return GuardDecision{State: state, Action: GuardRender}
	default:
		return GuardDecision{
			State:    state,
			Action:   GuardRedirect,
			Location: LoginRedirect(LandingPath, requested),
			Err:      ErrAuthRequired,
		}
	}
}

// LoginRedirect arma base?next=requested, conservando la ruta pedida cuando es local.
func LoginRedirect(base, requested string) string {
	next := SafeNext(requested)
	if next == "" || next == "/" {
		return base
	}
	return base + "?next=" + url.QueryEscape(next)
}

// SafeNext acepta solo rutas locales absolutas; cualquier otra cosa devuelve "".
func SafeNext(next string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return ""
	}
	return next
}
