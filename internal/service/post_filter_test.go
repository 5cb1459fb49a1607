package service

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"

	"blogverse/internal/domain"
)

func TestFilterPostsMatchesTitleContentAndAuthor(t *testing.T) {
	posts := domain.PostList{
		{ID: "1", Title: "Go Concurrency", Content: "channels", Author: domain.Author{Name: "Ana"}},
		{ID: "2", Title: "Cooking", Content: "pasta with GOAT cheese", Author: domain.Author{Name: "Luis"}},
		{ID: "3", Title: "Travel", Content: "trains", Author: domain.Author{Name: "Gopher"}},
		{ID: "4", Title: "Music", Content: "jazz", Author: domain.Author{Name: "Eva"}},
	}

	got := FilterPosts(posts, "go")
	ids := make([]string, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestFilterPostsEmptyQueryReturnsAll(t *testing.T) {
	faker := gofakeit.New(42)
	posts := make(domain.PostList, 0, 20)
	for i := 0; i < 20; i++ {
		posts = append(posts, domain.Post{
			ID:      faker.UUID(),
			Title:   faker.Sentence(4),
			Content: faker.Paragraph(1, 3, 12, " "),
			Author:  domain.Author{Name: faker.Name()},
		})
	}
	assert.Equal(t, posts, FilterPosts(posts, ""))
	assert.Empty(t, FilterPosts(posts, "zzz-no-such-term-zzz"))
}

func TestFilterPostsFoldsCase(t *testing.T) {
	posts := domain.PostList{{ID: "1", Title: "STRASSE"}, {ID: "2", Title: "other"}}
	got := FilterPosts(posts, "strasse")
	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
}

func randomCase(faker *gofakeit.Faker, s string) string {
	var b strings.Builder
	for _, r := range s {
		if faker.Bool() {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteString(strings.ToLower(string(r)))
		}
	}
	return b.String()
}

func TestFilterPostsMatchesBruteForce(t *testing.T) {
	faker := gofakeit.New(7)
	posts := make(domain.PostList, 0, 30)
	for i := 0; i < 30; i++ {
		posts = append(posts, domain.Post{
			ID:      faker.UUID(),
			Title:   faker.Sentence(3),
			Content: faker.Paragraph(1, 2, 8, " "),
			Author:  domain.Author{Name: faker.Name()},
		})
	}

	for i := 0; i < 200; i++ {
		src := posts[faker.Number(0, len(posts)-1)]
		field := []string{src.Title, src.Content, src.Author.Name}[faker.Number(0, 2)]
		start := faker.Number(0, len(field)-1)
		end := faker.Number(start+1, min(len(field), start+6))
		query := randomCase(faker, field[start:end])

		want := domain.PostList{}
		q := strings.ToLower(query)
		for _, p := range posts {
			if strings.Contains(strings.ToLower(p.Title), q) ||
				strings.Contains(strings.ToLower(p.Content), q) ||
				strings.Contains(strings.ToLower(p.Author.Name), q) {
				want = append(want, p)
			}
		}

		got := FilterPosts(posts, query)
		assert.Equal(t, want, got, "query %q", query)
		assert.Contains(t, got, src, "query %q taken from the post itself", query)
		for _, p := range posts {
			assert.Equal(t, MatchesPost(p, query), containsID(got, p.ID), "query %q post %s", query, p.ID)
		}
	}
}

func containsID(posts domain.PostList, id string) bool {
	for _, p := range posts {
		if p.ID == id {
			return true
		}
	}
	return false
}
