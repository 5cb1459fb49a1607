package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestAuthorUnmarshal_Shapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Author
	}{
		{name: "plain id", raw: `"u1"`, want: Author{ID: "u1"}},
		{name: "embedded", raw: `{"_id":"u2","name":"Ana","email":"ana@example.com"}`, want: Author{ID: "u2", Name: "Ana", Email: "ana@example.com"}},
		{name: "embedded with id key", raw: `{"id":"u3","name":"Leo"}`, want: Author{ID: "u3", Name: "Leo"}},
		{name: "null", raw: `null`, want: Author{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a Author
			if err := json.Unmarshal([]byte(tt.raw), &a); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if a != tt.want {
				t.Fatalf("expected %+v, got %+v", tt.want, a)
			}
		})
	}
}

func TestPostUnmarshal_ToleratesBadDate(t *testing.T) {
	var p Post
	if err := json.Unmarshal([]byte(`{"id":"p1","title":"T","content":"C","author":"u1","createdAt":"yesterday"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ID != "p1" || !p.CreatedAt.IsZero() {
		t.Fatalf("unexpected post %+v", p)
	}

	if err := json.Unmarshal([]byte(`{"_id":"p2","createdAt":"2024-05-01T10:00:00.000Z","tags":["go","web"]}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.CreatedAt.Year() != 2024 || len(p.Tags) != 2 {
		t.Fatalf("unexpected post %+v", p)
	}
}

func TestPostList_Normalization(t *testing.T) {
	for _, raw := range []string{`[{"_id":"a"},{"_id":"b"}]`, `{"blogs":[{"_id":"a"},{"_id":"b"}]}`} {
		var l PostList
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if len(l) != 2 || l[0].ID != "a" || l[1].ID != "b" {
			t.Fatalf("unexpected list from %s: %+v", raw, l)
		}
	}

	var empty PostList
	if err := json.Unmarshal([]byte(`{"message":"none"}`), &empty); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty list, got %#v", empty)
	}
}

func TestPostList_WithoutLeavesOriginal(t *testing.T) {
	l := PostList{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	out := l.Without("b")
	if len(out) != 2 || out[0].ID != "a" || out[1].ID != "c" {
		t.Fatalf("unexpected result %+v", out)
	}
	if len(l) != 3 || l[1].ID != "b" {
		t.Fatalf("original list mutated: %+v", l)
	}
	if len(l.First(2)) != 2 || len(l.First(10)) != 3 {
		t.Fatalf("unexpected First behaviour")
	}
}

func TestPostOwnedBy(t *testing.T) {
	p := Post{Author: Author{ID: "u1"}}
	if !p.OwnedBy("u1") || p.OwnedBy("u2") || p.OwnedBy("") {
		t.Fatalf("unexpected ownership result")
	}
	if (Post{}).OwnedBy("") {
		t.Fatalf("empty ids must never match")
	}
}

func TestUserUnmarshal_AcceptsBothIDKeys(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":"u9","name":"Zoe"}`), &u); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if u.ID != "u9" || u.DisplayName() != "Zoe" {
		t.Fatalf("unexpected user %+v", u)
	}
	if (User{}).DisplayName() != "Profile" {
		t.Fatalf("expected Profile fallback")
	}
}

func TestPostList_RecentSortsWithoutMutating(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	list := PostList{
		{ID: "old", CreatedAt: base},
		{ID: "undated"},
		{ID: "new", CreatedAt: base.Add(48 * time.Hour)},
		{ID: "mid", CreatedAt: base.Add(24 * time.Hour)},
	}

	got := list.Recent(2)
	if len(got) != 2 || got[0].ID != "new" || got[1].ID != "mid" {
		t.Fatalf("unexpected recent order: %+v", got)
	}
	if list[0].ID != "old" || list[2].ID != "new" {
		t.Fatalf("Recent must not reorder the original list")
	}
	if all := list.Recent(10); all[len(all)-1].ID != "undated" {
		t.Fatalf("expected undated post last, got %+v", all)
	}
}
