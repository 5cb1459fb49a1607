package blogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"blogverse/internal/domain"
)

// API define una funcion por operacion remota.
type API interface {
	Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error)
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error)
	ListPosts(ctx context.Context) (domain.PostList, error)
	ListUserPosts(ctx context.Context, userID string) (domain.PostList, error)
	GetPost(ctx context.Context, id string) (domain.Post, error)
	CreatePost(ctx context.Context, draft domain.PostDraft, authorID string, image *domain.ImageUpload) (domain.Post, error)
	UpdatePost(ctx context.Context, id string, draft domain.PostDraft) (domain.Post, error)
	DeletePost(ctx context.Context, id string) (domain.DeleteResult, error)
}

// Recorder recibe una observacion por llamada remota.
type Recorder interface {
	ObserveUpstream(op string, status int, elapsed time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpstream(string, int, time.Duration) {}

// Client implementa API contra el servicio REST remoto.
// No reintenta ni cachea: cada llamada es un unico intento.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
	metrics Recorder
}

// NewClient construye un cliente apuntando a baseURL (por ejemplo http://host/api).
func NewClient(baseURL string, httpClient *http.Client, logger *zap.Logger, metrics Recorder) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpClient,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.doJSON(ctx, call{op: "register", method: http.MethodPost, path: "/user/register", fallback: "Failed to register"}, reg, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResult, error) {
	var out domain.AuthResult
	err := c.doJSON(ctx, call{op: "login", method: http.MethodPost, path: "/user/login", fallback: "Failed to login"}, creds, &out)
	return out, err
}

func (c *Client) ListPosts(ctx context.Context) (domain.PostList, error) {
	var out domain.PostList
	err := c.doJSON(ctx, call{op: "list_posts", method: http.MethodGet, path: "/blog/", fallback: "Failed to fetch blogs"}, nil, &out)
	return out, err
}

func (c *Client) ListUserPosts(ctx context.Context, userID string) (domain.PostList, error) {
	var out domain.PostList
	err := c.doJSON(ctx, call{
		op: "list_user_posts", method: http.MethodGet, path: "/blog/" + url.PathEscape(userID),
		auth: true, fallback: "Failed to fetch user blogs",
	}, nil, &out)
	return out, err
}

func (c *Client) GetPost(ctx context.Context, id string) (domain.Post, error) {
	var out domain.Post
	err := c.doJSON(ctx, call{
		op: "get_post", method: http.MethodGet, path: "/blog/single/" + url.PathEscape(id),
		auth: true, fallback: "Failed to fetch blog post",
	}, nil, &out)
	return out, err
}

// CreatePost siempre envia multipart; el Content-Type lleva el boundary del writer.
func (c *Client) CreatePost(ctx context.Context, draft domain.PostDraft, authorID string, image *domain.ImageUpload) (domain.Post, error) {
	cl := call{op: "create_post", method: http.MethodPost, path: "/blog/create", auth: true, fallback: "Failed to create blog"}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := [][2]string{{"title", draft.Title}, {"content", draft.Content}, {"author", authorID}}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return domain.Post{}, c.localFailure(cl, fmt.Errorf("write field %s: %w", f[0], err))
		}
	}
	if image != nil && len(image.Data) > 0 {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, image.Filename))
		ct := image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := mw.CreatePart(h)
		if err != nil {
			return domain.Post{}, c.localFailure(cl, fmt.Errorf("create image part: %w", err))
		}
		if _, err := part.Write(image.Data); err != nil {
			return domain.Post{}, c.localFailure(cl, fmt.Errorf("write image part: %w", err))
		}
	}
	if err := mw.Close(); err != nil {
		return domain.Post{}, c.localFailure(cl, fmt.Errorf("close multipart: %w", err))
	}

	cl.contentType = mw.FormDataContentType()
	var out domain.Post
	err := c.do(ctx, cl, &buf, func(_ int, body []byte) error {
		return json.Unmarshal(body, &out)
	})
	return out, err
}

func (c *Client) UpdatePost(ctx context.Context, id string, draft domain.PostDraft) (domain.Post, error) {
	var out domain.Post
	err := c.doJSON(ctx, call{
		op: "update_post", method: http.MethodPut, path: "/blog/" + url.PathEscape(id),
		auth: true, fallback: "Failed to update blog",
	}, draft, &out)
	return out, err
}

func (c *Client) DeletePost(ctx context.Context, id string) (domain.DeleteResult, error) {
	cl := call{
		op: "delete_post", method: http.MethodDelete, path: "/blog/" + url.PathEscape(id),
		auth: true, fallback: "Failed to delete blog",
	}
	out := domain.DeleteResult{Message: "Blog deleted successfully"}
	err := c.do(ctx, cl, nil, func(status int, body []byte) error {
		if status == http.StatusNoContent || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		var confirm domain.DeleteResult
		if err := json.Unmarshal(body, &confirm); err != nil {
			return err
		}
		if confirm.Message != "" {
			out = confirm
		}
		return nil
	})
	return out, err
}

type call struct {
	op          string
	method      string
	path        string
	auth        bool
	contentType string
	fallback    string
}

func (c *Client) doJSON(ctx context.Context, cl call, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return c.localFailure(cl, fmt.Errorf("marshal request: %w", err))
		}
		body = bytes.NewReader(payload)
		cl.contentType = "application/json"
	}
	return c.do(ctx, cl, body, func(_ int, respBody []byte) error {
		return json.Unmarshal(respBody, out)
	})
}

func (c *Client) do(ctx context.Context, cl call, body io.Reader, decode func(status int, body []byte) error) error {
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, body)
	if err != nil {
		return c.localFailure(cl, fmt.Errorf("create request: %w", err))
	}
	if cl.contentType != "" {
		req.Header.Set("Content-Type", cl.contentType)
	}
	req.Header.Set("Accept", "application/json")
	if cl.auth {
		if token := TokenFromContext(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.metrics.ObserveUpstream(cl.op, 0, time.Since(start))
		c.logger.Warn("upstream request failed", zap.String("op", cl.op), zap.Error(err))
		return &RequestFailedError{Op: cl.op, Message: cl.fallback, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	c.metrics.ObserveUpstream(cl.op, resp.StatusCode, time.Since(start))
	if err != nil {
		return &RequestFailedError{Op: cl.op, Status: resp.StatusCode, Message: cl.fallback, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("upstream error status",
			zap.String("op", cl.op),
			zap.Int("status", resp.StatusCode),
		)
		return &RequestFailedError{Op: cl.op, Status: resp.StatusCode, Message: extractMessage(respBody, cl.fallback)}
	}

	if err := decode(resp.StatusCode, respBody); err != nil {
		c.logger.Warn("upstream response undecodable", zap.String("op", cl.op), zap.Error(err))
		return &RequestFailedError{Op: cl.op, Status: resp.StatusCode, Message: cl.fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (c *Client) localFailure(cl call, err error) error {
	return &RequestFailedError{Op: cl.op, Message: cl.fallback, Err: err}
}

// extractMessage toma "message" o "error" del cuerpo; si no hay, usa fallback.
func extractMessage(body []byte, fallback string) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if len(bytes.TrimSpace(body)) == 0 || json.Unmarshal(body, &payload) != nil {
		return fallback
	}
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	if msg := strings.TrimSpace(payload.Error); msg != "" {
		return msg
	}
	return fallback
}

var (
	_ API = (*Client)(nil)
	_ API = (*MockClient)(nil)
)
