package blogapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"blogverse/internal/domain"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/api/", srv.Client(), zap.NewNop(), nil)
}

func authCtx(token string) context.Context {
	return WithTokenSource(context.Background(), StaticToken(token))
}

func TestClientLogin_Success(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/user/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected json content type, got %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("login must not send a bearer token")
		}
		var creds domain.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "ana@example.com" || creds.Password != "secret1" {
			t.Errorf("unexpected credentials %+v", creds)
		}
		_, _ = io.WriteString(w, `{"token":"tok-1","user":{"_id":"u1","name":"Ana","email":"ana@example.com"}}`)
	}))

	res, err := c.Login(authCtx("ignored"), domain.Credentials{Email: "ana@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.Token != "tok-1" || res.User == nil || res.User.ID != "u1" || res.User.Name != "Ana" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestClientLogin_ServerMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"message":"Invalid email or password"}`)
	}))

	_, err := c.Login(context.Background(), domain.Credentials{Email: "a@b.c", Password: "nope"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if err.Error() != "Invalid email or password" {
		t.Fatalf("expected server message, got %q", err.Error())
	}
}

func TestClient_FallbackMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "html body", body: "<html>oops</html>"},
		{name: "json without message", body: `{"ok":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, tt.body)
			}))
			_, err := c.ListPosts(context.Background())
			if err == nil || err.Error() != "Failed to fetch blogs" {
				t.Fatalf("expected fallback message, got %v", err)
			}
		})
	}
}

func TestClient_ErrorFieldUsedWhenNoMessage(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"error":"Email already registered"}`)
	}))
	_, err := c.Register(context.Background(), domain.Registration{Name: "A", Email: "a@b.c", Password: "secret1"})
	if err == nil || err.Error() != "Email already registered" {
		t.Fatalf("expected error field message, got %v", err)
	}
}

func TestClientListPosts_NormalizesShapes(t *testing.T) {
	bodies := map[string]string{
		"array":   `[{"_id":"p1","title":"A","content":"x","author":{"_id":"u1","name":"Ana"}},{"_id":"p2","title":"B","content":"y","author":"u2"}]`,
		"wrapped": `{"blogs":[{"_id":"p1","title":"A","content":"x","author":{"_id":"u1","name":"Ana"}},{"_id":"p2","title":"B","content":"y","author":"u2"}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/blog/" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				_, _ = io.WriteString(w, body)
			}))
			posts, err := c.ListPosts(context.Background())
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(posts) != 2 {
				t.Fatalf("expected 2 posts, got %d", len(posts))
			}
			if posts[0].Author.Name != "Ana" || posts[1].Author.ID != "u2" {
				t.Fatalf("unexpected authors %+v %+v", posts[0].Author, posts[1].Author)
			}
		})
	}
}

func TestClientListUserPosts_SendsBearer(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/blog/u1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-9" {
			t.Errorf("expected bearer header, got %q", got)
		}
		_, _ = io.WriteString(w, `[]`)
	}))
	posts, err := c.ListUserPosts(authCtx("tok-9"), "u1")
	if err != nil {
		t.Fatalf("list user posts: %v", err)
	}
	if posts == nil || len(posts) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", posts)
	}
}

func TestClientCreatePost_Multipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary=") {
			t.Errorf("expected multipart content type, got %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if r.FormValue("title") != "Hello" || r.FormValue("content") != "World body" || r.FormValue("author") != "u1" {
			t.Errorf("unexpected fields %v", r.MultipartForm.Value)
		}
		file, hdr, err := r.FormFile("image")
		if err != nil {
			t.Fatalf("expected image part: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if hdr.Filename != "cat.png" || string(data) != "PNGDATA" || hdr.Header.Get("Content-Type") != "image/png" {
			t.Errorf("unexpected image %q %q %q", hdr.Filename, data, hdr.Header.Get("Content-Type"))
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"p9","title":"Hello","content":"World body","author":"u1","image":"http://cdn/cat.png"}`)
	}))

	post, err := c.CreatePost(authCtx("tok"), domain.PostDraft{Title: "Hello", Content: "World body"}, "u1",
		&domain.ImageUpload{Filename: "cat.png", ContentType: "image/png", Data: []byte("PNGDATA")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if post.ID != "p9" || post.Image == "" {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestClientCreatePost_WithoutImageStillMultipart(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if _, _, err := r.FormFile("image"); err == nil {
			t.Errorf("did not expect an image part")
		}
		_, _ = io.WriteString(w, `{"_id":"p1"}`)
	}))
	if _, err := c.CreatePost(authCtx("tok"), domain.PostDraft{Title: "T", Content: "C"}, "u1", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
}

// fakeBlogService guarda posts en memoria como lo haria el servicio remoto.
type fakeBlogService struct {
	mu    sync.Mutex
	posts map[string]map[string]string
}

func (f *fakeBlogService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/api/blog/create":
		_ = r.ParseMultipartForm(1 << 20)
		f.posts["p1"] = map[string]string{"_id": "p1", "title": r.FormValue("title"), "content": r.FormValue("content"), "author": r.FormValue("author")}
		_ = json.NewEncoder(w).Encode(f.posts["p1"])
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/api/blog/single/"):
		p, ok := f.posts[strings.TrimPrefix(r.URL.Path, "/api/blog/single/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Blog not found"}`)
			return
		}
		_ = json.NewEncoder(w).Encode(p)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestClient_CreateThenGetRoundTrip(t *testing.T) {
	c := newTestClient(t, &fakeBlogService{posts: map[string]map[string]string{}})
	ctx := authCtx("tok")
	title := "  Título con espacios  "
	content := "Línea uno\n\nLínea dos\t<b>sin</b> cambios  "

	created, err := c.CreatePost(ctx, domain.PostDraft{Title: title, Content: content}, "u1", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := c.GetPost(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != title || got.Content != content {
		t.Fatalf("round trip changed post: %q %q", got.Title, got.Content)
	}
	if !got.OwnedBy("u1") {
		t.Fatalf("expected post owned by u1, got author %+v", got.Author)
	}

	_, err = c.GetPost(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestClientUpdatePost_JSONPut(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/blog/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var draft domain.PostDraft
		_ = json.NewDecoder(r.Body).Decode(&draft)
		_ = json.NewEncoder(w).Encode(map[string]string{"_id": "p1", "title": draft.Title, "content": draft.Content})
	}))
	post, err := c.UpdatePost(authCtx("tok"), "p1", domain.PostDraft{Title: "New", Content: "Updated content"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if post.Title != "New" {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestClientDeletePost_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
		wantErr error
	}{
		{name: "no content", status: http.StatusNoContent, wantMsg: "Blog deleted successfully"},
		{name: "json confirmation", status: http.StatusOK, body: `{"message":"Deleted!"}`, wantMsg: "Deleted!"},
		{name: "not found", status: http.StatusNotFound, body: `{"message":"Blog not found"}`, wantErr: ErrNotFound},
		{name: "forbidden", status: http.StatusForbidden, body: `{"message":"Not your blog"}`, wantErr: ErrUnauthorized},
		{name: "token rejected", status: http.StatusUnauthorized, wantErr: ErrTokenRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodDelete {
					t.Errorf("expected DELETE, got %s", r.Method)
				}
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			res, err := c.DeletePost(authCtx("tok"), "p1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) || !errors.Is(err, ErrRequestFailed) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("delete: %v", err)
			}
			if res.Message != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, res.Message)
			}
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, nil, zap.NewNop(), nil)
	_, err := c.ListPosts(context.Background())
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected ErrRequestFailed, got %v", err)
	}
	if err.Error() != "Failed to fetch blogs" {
		t.Fatalf("expected fallback message, got %q", err.Error())
	}
}

func TestClient_CanceledContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.ListPosts(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled in chain, got %v", err)
	}
}

type recordingRecorder struct {
	ops []string
}

func (r *recordingRecorder) ObserveUpstream(op string, status int, _ time.Duration) {
	r.ops = append(r.ops, op)
}

func TestClient_RecordsUpstreamCalls(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	rec := &recordingRecorder{}
	c := NewClient(srv.URL, srv.Client(), zap.NewNop(), rec)
	_, _ = c.ListPosts(context.Background())
	_, _ = c.ListUserPosts(authCtx("tok"), "u1")

	if len(rec.ops) != 2 || rec.ops[0] != "list_posts" || rec.ops[1] != "list_user_posts" {
		t.Fatalf("unexpected recorded ops %v", rec.ops)
	}
}
