package domain

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"
)

// Author identifica al autor de un post. El servicio lo envia como id plano o como perfil embebido.
type Author struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

func (a *Author) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = Author{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*a = Author{ID: id}
		return nil
	}
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*a = Author{ID: u.ID, Name: u.Name, Email: u.Email}
	return nil
}

// Post es una copia local, no autoritativa, de un post del servicio remoto.
type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    Author    `json:"author"`
	Image     string    `json:"image,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *Post) UnmarshalJSON(data []byte) error {
	var raw struct {
		MongoID   string   `json:"_id"`
		ID        string   `json:"id"`
		Title     string   `json:"title"`
		Content   string   `json:"content"`
		Author    Author   `json:"author"`
		Image     string   `json:"image"`
		Tags      []string `json:"tags"`
		CreatedAt string   `json:"createdAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Post{
		ID:      raw.MongoID,
		Title:   raw.Title,
		Content: raw.Content,
		Author:  raw.Author,
		Image:   raw.Image,
		Tags:    raw.Tags,
	}
	if p.ID == "" {
		p.ID = raw.ID
	}
	// Una fecha ilegible no invalida el post; se muestra sin fecha.
	if raw.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339Nano, raw.CreatedAt); err == nil {
			p.CreatedAt = ts
		}
	}
	return nil
}

// OwnedBy compara el autor con el usuario de la sesion. Es solo una ayuda de UX.
func (p Post) OwnedBy(userID string) bool {
	return userID != "" && p.Author.ID == userID
}

// PostList normaliza las dos formas de respuesta del servicio: arreglo o {"blogs": [...]}.
type PostList []Post

func (l *PostList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = PostList{}
		return nil
	}
	if data[0] == '[' {
		var posts []Post
		if err := json.Unmarshal(data, &posts); err != nil {
			return err
		}
		*l = posts
		return nil
	}
	var wrapped struct {
		Blogs []Post `json:"blogs"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.Blogs == nil {
		wrapped.Blogs = []Post{}
	}
	*l = wrapped.Blogs
	return nil
}

// Without devuelve una lista nueva sin el post indicado; la original no se modifica.
func (l PostList) Without(id string) PostList {
	out := make(PostList, 0, len(l))
	for _, p := range l {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// First devuelve a lo sumo n posts.
func (l PostList) First(n int) PostList {
	if n < 0 {
		n = 0
	}
	if len(l) <= n {
		return l
	}
	return l[:n]
}

// Recent devuelve los n posts mas nuevos, sin modificar la lista. Los posts sin fecha van al final.
func (l PostList) Recent(n int) PostList {
	out := slices.Clone(l)
	slices.SortStableFunc(out, func(a, b Post) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out.First(n)
}

// PostDraft es el contenido de un formulario de creacion o edicion.
type PostDraft struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ImageUpload es el binario opcional que acompaña a un post nuevo.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// DeleteResult es la confirmacion de borrado.
type DeleteResult struct {
	Message string `json:"message"`
}
