package service

import (
	"strings"

	"golang.org/x/text/cases"

	"blogverse/internal/domain"
)

// FilterPosts devuelve, en el mismo orden, los posts cuyo titulo, contenido o nombre de
// autor contienen query sin distinguir mayusculas. Una query vacia devuelve todo.
func FilterPosts(posts domain.PostList, query string) domain.PostList {
	if query == "" {
		return posts
	}
	out := make(domain.PostList, 0, len(posts))
	for _, p := range posts {
		if MatchesPost(p, query) {
			out = append(out, p)
		}
	}
	return out
}

// MatchesPost aplica a un solo post la regla de FilterPosts.
func MatchesPost(p domain.Post, query string) bool {
	if query == "" {
		return true
	}
	folder := cases.Fold()
	q := folder.String(query)
	return strings.Contains(folder.String(p.Title), q) ||
		strings.Contains(folder.String(p.Content), q) ||
		strings.Contains(folder.String(p.Author.Name), q)
}
