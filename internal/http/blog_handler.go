package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"blogverse/internal/blogapi"
	"blogverse/internal/domain"
	"blogverse/internal/service"
)

const editDeniedMessage = "You are not authorized to edit this blog."

// BlogHandler atiende las vistas protegidas de posts.
type BlogHandler struct {
	views
}

// NewBlogHandler crea una instancia de BlogHandler con dependencias necesarias.
func NewBlogHandler(logger *zap.Logger, api blogapi.API, tracker *FetchTracker, render *Renderer, opts Options) *BlogHandler {
	return &BlogHandler{views: newViews(logger, api, tracker, render, opts)}
}

type homeView struct {
	Query   string
	Posts   ViewState[domain.PostList]
	Cards   []searchCard
	Matches int
}

// searchCard es un post del listado con su resultado para la query actual. Los que no
// coinciden se envian ocultos para que el filtro del navegador los pueda mostrar.
type searchCard struct {
	Post  domain.Post
	Match bool
}

type postFormView struct {
	PostID  string
	Draft   domain.PostDraft
	Errors  service.ValidationErrors
	Message string
	Denied  bool
	Post    ViewState[domain.Post]
}

type singleView struct {
	Post  ViewState[domain.Post]
	Owner bool
}

type myBlogsView struct {
	Posts   ViewState[domain.PostList]
	Notice  string
	Message string
}

// Home maneja GET /. Se envia la lista completa; el navegador filtra en cada tecla sobre
// ella sin volver a pedirla. ?q= aplica el mismo filtro del lado del servidor sin JS.
func (h *BlogHandler) Home(c *gin.Context) {
	st, ok := fetchView(&h.views, c, "home", h.api.ListPosts)
	if !ok {
		return
	}
	v := homeView{Query: c.Query("q"), Posts: st}
	if st.Loaded() {
		v.Cards = make([]searchCard, 0, len(st.Data))
		for _, p := range st.Data {
			match := service.MatchesPost(p, v.Query)
			if match {
				v.Matches++
			}
			v.Cards = append(v.Cards, searchCard{Post: p, Match: match})
		}
	}
	h.render.page(c, viewStatus(st), "home.html", "Home", v)
}

// CreateForm maneja GET /create-blog.
func (h *BlogHandler) CreateForm(c *gin.Context) {
	h.render.page(c, http.StatusOK, "create.html", "Create Blog", postFormView{})
}

// Create maneja POST /create-blog. Titulo y contenido se envian tal cual llegaron.
func (h *BlogHandler) Create(c *gin.Context) {
	draft := domain.PostDraft{Title: c.PostForm("title"), Content: c.PostForm("content")}
	v := postFormView{Draft: draft}

	errs := fieldErrors(service.ValidateDraft(draft))
	image, msg := h.readImage(c)
	if msg != "" {
		if errs == nil {
			errs = service.ValidationErrors{}
		}
		errs["image"] = msg
	}
	if len(errs) > 0 {
		v.Errors = errs
		h.render.page(c, http.StatusUnprocessableEntity, "create.html", "Create Blog", v)
		return
	}

	user := sessionUser(c)
	post, err := h.api.CreatePost(c.Request.Context(), draft, user.ID, image)
	if err != nil {
		if h.tokenRejected(c, err) {
			return
		}
		v.Message = blogapi.Message(err, "Failed to create blog")
		h.render.page(c, failureStatus(err), "create.html", "Create Blog", v)
		return
	}
	h.logger.Info("blog created", zap.String("blog_id", post.ID))
	if post.ID == "" {
		c.Redirect(http.StatusSeeOther, "/my-blogs")
		return
	}
	c.Redirect(http.StatusSeeOther, "/singleBlog/"+post.ID)
}

// readImage devuelve la imagen opcional del formulario o el mensaje de error del campo.
func (h *BlogHandler) readImage(c *gin.Context) (*domain.ImageUpload, string) {
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, ""
	}
	if err != nil {
		h.logger.Warn("invalid image upload", zap.Error(err))
		return nil, "Invalid image upload"
	}
	if fh.Size == 0 {
		return nil, ""
	}
	if fh.Size > h.opts.MaxImageBytes {
		return nil, fmt.Sprintf("Image must be at most %d MB", h.opts.MaxImageBytes>>20)
	}
	ct := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "image/") {
		return nil, "Only image files are allowed"
	}

	f, err := fh.Open()
	if err != nil {
		h.logger.Warn("open image upload failed", zap.Error(err))
		return nil, "Invalid image upload"
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, h.opts.MaxImageBytes+1))
	if err != nil {
		h.logger.Warn("read image upload failed", zap.Error(err))
		return nil, "Invalid image upload"
	}
	if int64(len(data)) > h.opts.MaxImageBytes {
		return nil, fmt.Sprintf("Image must be at most %d MB", h.opts.MaxImageBytes>>20)
	}
	return &domain.ImageUpload{Filename: fh.Filename, ContentType: ct, Data: data}, ""
}

// MyBlogs maneja GET /my-blogs: solo los posts del usuario de la sesion.
func (h *BlogHandler) MyBlogs(c *gin.Context) {
	st, ok := h.fetchUserPosts(c)
	if !ok {
		return
	}
	h.render.page(c, viewStatus(st), "my_blogs.html", "My Blogs", myBlogsView{Posts: st})
}

func (h *BlogHandler) fetchUserPosts(c *gin.Context) (ViewState[domain.PostList], bool) {
	user := sessionUser(c)
	return fetchView(&h.views, c, "my-blogs", func(ctx context.Context) (domain.PostList, error) {
		return h.api.ListUserPosts(ctx, user.ID)
	})
}

func (h *BlogHandler) fetchPost(c *gin.Context, view, id string) (ViewState[domain.Post], bool) {
	return fetchView(&h.views, c, view, func(ctx context.Context) (domain.Post, error) {
		return h.api.GetPost(ctx, id)
	})
}

// EditForm maneja GET /edit-blog/:id. Si el post no es del usuario el formulario
// queda deshabilitado; el servicio remoto vuelve a verificar al guardar.
func (h *BlogHandler) EditForm(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.fetchPost(c, "edit", id)
	if !ok {
		return
	}
	v := postFormView{PostID: id, Post: st}
	if !st.Loaded() {
		h.render.page(c, viewStatus(st), "edit.html", "Edit Blog", v)
		return
	}
	v.Draft = domain.PostDraft{Title: st.Data.Title, Content: st.Data.Content}
	if !st.Data.OwnedBy(sessionUser(c).ID) {
		v.Denied = true
		v.Message = editDeniedMessage
		h.render.page(c, http.StatusForbidden, "edit.html", "Edit Blog", v)
		return
	}
	h.render.page(c, http.StatusOK, "edit.html", "Edit Blog", v)
}

// Edit maneja POST /edit-blog/:id. Valida antes de cualquier llamada remota.
func (h *BlogHandler) Edit(c *gin.Context) {
	id := c.Param("id")
	draft := domain.PostDraft{Title: c.PostForm("title"), Content: c.PostForm("content")}
	v := postFormView{PostID: id, Draft: draft}

	if err := service.ValidateDraft(draft); err != nil {
		v.Errors = fieldErrors(err)
		h.render.page(c, http.StatusUnprocessableEntity, "edit.html", "Edit Blog", v)
		return
	}

	st, ok := h.fetchPost(c, "edit", id)
	if !ok {
		return
	}
	if !st.Loaded() {
		v.Post = st
		h.render.page(c, viewStatus(st), "edit.html", "Edit Blog", v)
		return
	}
	if !st.Data.OwnedBy(sessionUser(c).ID) {
		v.Denied = true
		v.Message = editDeniedMessage
		h.render.page(c, http.StatusForbidden, "edit.html", "Edit Blog", v)
		return
	}

	if _, err := h.api.UpdatePost(c.Request.Context(), id, draft); err != nil {
		if h.tokenRejected(c, err) {
			return
		}
		if errors.Is(err, blogapi.ErrUnauthorized) {
			v.Denied = true
			v.Message = editDeniedMessage
		} else {
			v.Message = blogapi.Message(err, "Failed to update blog")
		}
		h.render.page(c, failureStatus(err), "edit.html", "Edit Blog", v)
		return
	}
	h.logger.Info("blog updated", zap.String("blog_id", id))
	c.Redirect(http.StatusSeeOther, "/singleBlog/"+id)
}

// Single maneja GET /singleBlog/:id.
func (h *BlogHandler) Single(c *gin.Context) {
	st, ok := h.fetchPost(c, "single", c.Param("id"))
	if !ok {
		return
	}
	v := singleView{Post: st, Owner: st.Loaded() && st.Data.OwnedBy(sessionUser(c).ID)}
	h.render.page(c, viewStatus(st), "single.html", st.Data.Title, v)
}

// DeleteConfirm maneja GET /delete-blog/:id: pide confirmacion, no borra.
func (h *BlogHandler) DeleteConfirm(c *gin.Context) {
	st, ok := h.fetchPost(c, "delete", c.Param("id"))
	if !ok {
		return
	}
	h.render.page(c, viewStatus(st), "delete.html", "Delete Blog", singleView{Post: st})
}

// Delete maneja POST /delete-blog/:id. Sin confirm=yes no se llama al servicio.
// Trae la lista primero; si el borrado falla la lista se muestra intacta.
func (h *BlogHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusSeeOther, "/singleBlog/"+id)
		return
	}

	list, ok := h.fetchUserPosts(c)
	if !ok {
		return
	}
	v := myBlogsView{Posts: list}

	res, err := h.api.DeletePost(c.Request.Context(), id)
	if err != nil {
		if h.tokenRejected(c, err) {
			return
		}
		h.logger.Warn("delete blog failed", zap.String("blog_id", id), zap.Error(err))
		v.Message = blogapi.Message(err, "Failed to delete blog")
		h.render.page(c, failureStatus(err), "my_blogs.html", "My Blogs", v)
		return
	}

	if list.Loaded() {
		v.Posts.Data = list.Data.Without(id)
	}
	v.Notice = res.Message
	h.logger.Info("blog deleted", zap.String("blog_id", id))
	h.render.page(c, http.StatusOK, "my_blogs.html", "My Blogs", v)
}

// Profile maneja GET /profile.
func (h *BlogHandler) Profile(c *gin.Context) {
	user := sessionUser(c)
	st, ok := fetchView(&h.views, c, "profile", func(ctx context.Context) (domain.PostList, error) {
		return h.api.ListUserPosts(ctx, user.ID)
	})
	if !ok {
		return
	}
	h.render.page(c, viewStatus(st), "profile.html", "Profile", myBlogsView{Posts: st})
}
