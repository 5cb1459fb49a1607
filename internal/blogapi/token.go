package blogapi

import "context"

// TokenSource entrega el token vigente de la sesion. Se consulta en cada llamada autenticada.
type TokenSource interface {
	Token() string
}

type tokenSourceKey struct{}

// WithTokenSource asocia la fuente de token de la sesion al contexto de la request.
func WithTokenSource(ctx context.Context, ts TokenSource) context.Context {
	return context.WithValue(ctx, tokenSourceKey{}, ts)
}

// TokenFromContext devuelve el token vigente, o "" si no hay sesion asociada.
func TokenFromContext(ctx context.Context) string {
	ts, ok := ctx.Value(tokenSourceKey{}).(TokenSource)
	if !ok || ts == nil {
		return ""
	}
	return ts.Token()
}

// StaticToken es una TokenSource fija, util para herramientas y tests.
type StaticToken string

func (t StaticToken) Token() string { return string(t) }
