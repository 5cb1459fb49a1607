package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"blogverse/internal/domain"
	"blogverse/internal/repository"
)

var (
	ErrEmptyToken    = errors.New("empty token")
	ErrManagerClosed = errors.New("session manager closed")
)

// SessionState es una foto de la sesion. User solo esta presente si Token lo esta.
type SessionState struct {
	Token   string
	User    *domain.User
	Loading bool
}

// Authenticated indica si la carga termino y hay token.
func (s SessionState) Authenticated() bool {
	return !s.Loading && s.Token != ""
}

// SessionEvent se publica en cada login y logout.
type SessionEvent struct {
	SessionID string
	State     SessionState
}

type sessionRecord struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user,omitempty"`
}

// SessionManager es el unico dueño del estado de sesion del proceso.
// Se crea una vez al arrancar y se cierra al apagar.
type SessionManager struct {
	logger *zap.Logger
	repo   repository.SessionRepository
	sealer *Sealer
	ttl    time.Duration
	now    func() time.Time

	mu     sync.RWMutex
	subs   map[int]func(SessionEvent)
	nextID int
	closed bool
}

func NewSessionManager(logger *zap.Logger, repo repository.SessionRepository, secret string, ttl time.Duration) (*SessionManager, error) {
	if repo == nil {
		return nil, errors.New("session repository not configured")
	}
	sealer, err := NewSealer(secret)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionManager{
		logger: logger,
		repo:   repo,
		sealer: sealer,
		ttl:    ttl,
		now:    time.Now,
		subs:   make(map[int]func(SessionEvent)),
	}, nil
}

// Load devuelve la sesion identificada por id, ya inicializada desde el almacenamiento.
// Un id vacio produce una sesion anonima sin lectura.
func (m *SessionManager) Load(ctx context.Context, id string) *Session {
	s := &Session{manager: m, id: id, loading: true}
	s.Init(ctx)
	return s
}

// Subscribe registra fn para eventos de sesion. Las notificaciones son sincronicas
// y respetan el orden de suscripcion.
func (m *SessionManager) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Close libera los suscriptores; logins posteriores fallan con ErrManagerClosed.
func (m *SessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.subs = make(map[int]func(SessionEvent))
	return nil
}

func (m *SessionManager) isClosed() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed
}

func (m *SessionManager) publish(ev SessionEvent) {
	m.mu.RLock()
	ids := make([]int, 0, len(m.subs))
	for id := range m.subs {
		ids = append(ids, id)
	}
	fns := make([]func(SessionEvent), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, m.subs[id])
	}
	m.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Session es la sesion de un navegador. Implementa blogapi.TokenSource.
type Session struct {
	manager *SessionManager
	once    sync.Once

	mu      sync.RWMutex
	id      string
	token   string
	user    *domain.User
	loading bool
}

// Init lee el registro persistido una sola vez. Un registro corrupto o un token vencido
// dejan la sesion vacia; un fallo del almacenamiento la deja en carga.
func (s *Session) Init(ctx context.Context) {
	s.once.Do(func() {
		s.init(ctx)
	})
}

func (s *Session) init(ctx context.Context) {
	m := s.manager
	if s.id == "" {
		s.finishEmpty()
		return
	}

	sealed, err := m.repo.Get(ctx, s.id)
	if errors.Is(err, repository.ErrSessionNotFound) {
		s.finishEmpty()
		return
	}
	if err != nil {
		m.logger.Error("session read failed", zap.String("session_id", s.id), zap.Error(err))
		return
	}

	rec, err := m.decode(sealed)
	if err != nil {
		m.logger.Warn("discarding corrupt session record", zap.String("session_id", s.id), zap.Error(err))
		s.discard(ctx)
		return
	}
	if rec.Token == "" {
		s.discard(ctx)
		return
	}
	if tokenExpired(rec.Token, m.now()) {
		m.logger.Info("session token expired", zap.String("session_id", s.id))
		s.discard(ctx)
		return
	}

	s.mu.Lock()
	s.token = rec.Token
	s.user = rec.User
	s.loading = false
	s.mu.Unlock()
}

func (s *Session) finishEmpty() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.loading = false
	s.mu.Unlock()
}

func (s *Session) discard(ctx context.Context) {
	s.finishEmpty()
	if err := s.manager.repo.Delete(ctx, s.id); err != nil {
		s.manager.logger.Error("session delete failed", zap.String("session_id", s.id), zap.Error(err))
	}
}

func (m *SessionManager) decode(sealed []byte) (sessionRecord, error) {
	plain, err := m.sealer.Open(sealed)
	if err != nil {
		return sessionRecord{}, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(plain, &rec); err != nil {
		return sessionRecord{}, fmt.Errorf("decode session record: %w", err)
	}
	if rec.Token == "" {
		rec.User = nil
	}
	return rec, nil
}

func (m *SessionManager) encode(rec sessionRecord) ([]byte, error) {
	plain, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return m.sealer.Seal(plain)
}

// ID devuelve el identificador persistido; vacio si la sesion nunca inicio login.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// State devuelve una copia del estado actual.
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := SessionState{Token: s.token, Loading: s.loading}
	if s.user != nil && s.token != "" {
		u := *s.user
		st.User = &u
	}
	return st
}

// Token implementa blogapi.TokenSource.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User devuelve el usuario de la sesion, si lo hay.
func (s *Session) User() (domain.User, bool) {
	st := s.State()
	if st.User == nil {
		return domain.User{}, false
	}
	return *st.User, true
}

// Login persiste token y usuario bajo un id nuevo y recien despues actualiza la memoria;
// al volver, el almacenamiento ya refleja el nuevo estado. El id anterior, si lo habia,
// se borra y se publica su logout: un id conocido antes del login nunca queda autenticado.
func (s *Session) Login(ctx context.Context, token string, user domain.User) error {
	m := s.manager
	if m.isClosed() {
		return ErrManagerClosed
	}
	if token == "" {
		return ErrEmptyToken
	}

	id := uuid.NewString()
	sealed, err := m.encode(sessionRecord{Token: token, User: &user})
	if err != nil {
		return fmt.Errorf("seal session: %w", err)
	}
	if err := m.repo.Put(ctx, id, sealed, m.ttl); err != nil {
		m.logger.Error("session write failed", zap.String("session_id", id), zap.Error(err))
		return fmt.Errorf("persist session: %w", err)
	}

	s.once.Do(func() {})
	s.mu.Lock()
	prev := s.id
	s.id = id
	s.token = token
	s.user = &user
	s.loading = false
	s.mu.Unlock()

	if prev != "" {
		if err := m.repo.Delete(ctx, prev); err != nil {
			m.logger.Error("session delete failed", zap.String("session_id", prev), zap.Error(err))
		}
		m.publish(SessionEvent{SessionID: prev})
	}
	m.publish(SessionEvent{SessionID: id, State: s.State()})
	return nil
}

// Logout limpia la memoria y borra el registro persistido. Es idempotente.
func (s *Session) Logout(ctx context.Context) error {
	m := s.manager
	s.once.Do(func() {})
	s.mu.Lock()
	id := s.id
	s.token = ""
	s.user = nil
	s.loading = false
	s.mu.Unlock()

	var err error
	if id != "" {
		if delErr := m.repo.Delete(ctx, id); delErr != nil {
			m.logger.Error("session delete failed", zap.String("session_id", id), zap.Error(delErr))
			err = fmt.Errorf("delete session: %w", delErr)
		}
	}
	m.publish(SessionEvent{SessionID: id, State: s.State()})
	return err
}
