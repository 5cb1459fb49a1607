package http

import (
	"context"
	"errors"
	"sync"

	"blogverse/internal/service"
)

var (
	// ErrFetchSuperseded cancela una carga cuando la misma vista pide otra mas nueva.
	ErrFetchSuperseded = errors.New("fetch superseded by a newer request")
	// ErrSessionEnded cancela las cargas de una sesion que hizo logout.
	ErrSessionEnded = errors.New("session ended")
)

type inflightFetch struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// FetchTracker mantiene a lo sumo una carga en vuelo por sesion y vista.
type FetchTracker struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]map[string]inflightFetch
	onCancel func()
	unsub    func()
}

// NewFetchTracker se suscribe a sessions para cancelar todo en cada logout.
// onCancel, si no es nil, se invoca por cada carga cancelada.
func NewFetchTracker(sessions *service.SessionManager, onCancel func()) *FetchTracker {
	t := &FetchTracker{
		inflight: make(map[string]map[string]inflightFetch),
		onCancel: onCancel,
	}
	if sessions != nil {
		t.unsub = sessions.Subscribe(func(ev service.SessionEvent) {
			if ev.State.Token == "" {
				t.CancelSession(ev.SessionID, ErrSessionEnded)
			}
		})
	}
	return t
}

// Begin deriva un contexto para la carga de view. Una carga anterior de la misma
// vista y sesion queda cancelada con ErrFetchSuperseded. done libera el registro.
// Las sesiones anonimas no se registran: no tienen identidad con la que competir.
func (t *FetchTracker) Begin(ctx context.Context, sessionID, view string) (context.Context, func()) {
	fctx, cancel := context.WithCancelCause(ctx)
	if sessionID == "" {
		return fctx, func() { cancel(nil) }
	}

	t.mu.Lock()
	t.seq++
	seq := t.seq
	views, ok := t.inflight[sessionID]
	if !ok {
		views = make(map[string]inflightFetch)
		t.inflight[sessionID] = views
	}
	prev, hadPrev := views[view]
	views[view] = inflightFetch{seq: seq, cancel: cancel}
	t.mu.Unlock()

	if hadPrev {
		prev.cancel(ErrFetchSuperseded)
		t.canceled()
	}

	return fctx, func() {
		t.mu.Lock()
		if views, ok := t.inflight[sessionID]; ok {
			if cur, ok := views[view]; ok && cur.seq == seq {
				delete(views, view)
				if len(views) == 0 {
					delete(t.inflight, sessionID)
				}
			}
		}
		t.mu.Unlock()
		cancel(nil)
	}
}

// CancelSession cancela todas las cargas en vuelo de la sesion.
func (t *FetchTracker) CancelSession(sessionID string, cause error) {
	if sessionID == "" {
		return
	}
	t.mu.Lock()
	views := t.inflight[sessionID]
	delete(t.inflight, sessionID)
	t.mu.Unlock()

	for _, f := range views {
		f.cancel(cause)
		t.canceled()
	}
}

// InFlight devuelve cuantas cargas tiene la sesion en curso.
func (t *FetchTracker) InFlight(sessionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight[sessionID])
}

// Close deja de escuchar eventos de sesion.
func (t *FetchTracker) Close() {
	if t.unsub != nil {
		t.unsub()
	}
}

func (t *FetchTracker) canceled() {
	if t.onCancel != nil {
		t.onCancel()
	}
}
