package blogapi

import (
	"context"
	"sync"

	"blogverse/internal/domain"
)

// MockClient permite tests sin llamar al servicio remoto.
// Cada campo Func, si no es nil, reemplaza la operacion; Calls registra el orden de llamadas.
type MockClient struct {
	mu    sync.Mutex
	Calls []string

	RegisterFunc      func(ctx context.Context, reg domain.Registration) (domain.AuthResult, error)
	LoginFunc         func(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	ListPostsFunc     func(ctx context.Context) (domain.PostList, error)
	ListUserPostsFunc func(ctx context.Context, userID string) (domain.PostList, error)
	GetPostFunc       func(ctx context.Context, id string) (domain.Post, error)
	CreatePostFunc    func(ctx context.Context, draft domain.PostDraft, authorID string, image *domain.ImageUpload) (domain.Post, error)
	UpdatePostFunc    func(ctx context.Context, id string, draft domain.PostDraft) (domain.Post, error)
	DeletePostFunc    func(ctx context.Context, id string) (domain.DeleteResult, error)
}

func (m *MockClient) record(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, op)
}

// CallCount devuelve cuantas veces se llamo op.
func (m *MockClient) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.Calls {
		if c == op {
			n++
		}
	}
	return n
}

func (m *MockClient) Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error) {
	m.record("register")
	if m.RegisterFunc == nil {
		return domain.AuthResult{}, nil
	}
	return m.RegisterFunc(ctx, reg)
}

func (m *MockClient) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	m.record("login")
	if m.LoginFunc == nil {
		return domain.AuthResult{}, nil
	}
	return m.LoginFunc(ctx, creds)
}

func (m *MockClient) ListPosts(ctx context.Context) (domain.PostList, error) {
	m.record("list_posts")
	if m.ListPostsFunc == nil {
		return domain.PostList{}, nil
	}
	return m.ListPostsFunc(ctx)
}

func (m *MockClient) ListUserPosts(ctx context.Context, userID string) (domain.PostList, error) {
	m.record("list_user_posts")
	if m.ListUserPostsFunc == nil {
		return domain.PostList{}, nil
	}
	return m.ListUserPostsFunc(ctx, userID)
}

func (m *MockClient) GetPost(ctx context.Context, id string) (domain.Post, error) {
	m.record("get_post")
	if m.GetPostFunc == nil {
		return domain.Post{}, &RequestFailedError{Op: "get_post", Status: 404, Message: "Blog not found"}
	}
	return m.GetPostFunc(ctx, id)
}

func (m *MockClient) CreatePost(ctx context.Context, draft domain.PostDraft, authorID string, image *domain.ImageUpload) (domain.Post, error) {
	m.record("create_post")
	if m.CreatePostFunc == nil {
		return domain.Post{Title: draft.Title, Content: draft.Content, Author: domain.Author{ID: authorID}}, nil
	}
	return m.CreatePostFunc(ctx, draft, authorID, image)
}

func (m *MockClient) UpdatePost(ctx context.Context, id string, draft domain.PostDraft) (domain.Post, error) {
	m.record("update_post")
	if m.UpdatePostFunc == nil {
		return domain.Post{ID: id, Title: draft.Title, Content: draft.Content}, nil
	}
	return m.UpdatePostFunc(ctx, id, draft)
}

func (m *MockClient) DeletePost(ctx context.Context, id string) (domain.DeleteResult, error) {
	m.record("delete_post")
	if m.DeletePostFunc == nil {
		return domain.DeleteResult{Message: "Blog deleted successfully"}, nil
	}
	return m.DeletePostFunc(ctx, id)
}
