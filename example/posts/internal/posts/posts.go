// Package posts declares the endpoints of the JSONPlaceholder API used by the
// example CLI.
package posts

import (
	"embed"
	"io/fs"
	"strconv"

	"github.com/kroma-labs/endpoint-go/apiclient"
)

type Post struct {
	UserID int    `json:"userId"`
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
}

type User struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Username string `json:"username" yaml:"username"`
	Email    string `json:"email" yaml:"email"`
}

type Comment struct {
	PostID int    `json:"postId"`
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Body   string `json:"body"`
}

func List(limit int) *apiclient.Endpoint[[]Post] {
	req := apiclient.Get("/posts")
	if limit > 0 {
		req = req.AddQuery("_limit", limit)
	}
	return apiclient.JSON[[]Post](req)
}

func Get(id int) *apiclient.Endpoint[Post] {
	return apiclient.JSON[Post](apiclient.Get("/posts/" + strconv.Itoa(id)))
}

// Title fetches only the title of a post.
func Title(id int) *apiclient.Endpoint[string] {
	return apiclient.Map(Get(id), func(p Post) (string, error) {
		return p.Title, nil
	})
}

func Author(p Post) (*apiclient.Endpoint[User], error) {
	return apiclient.JSON[User](apiclient.Get("/users/" + strconv.Itoa(p.UserID))), nil
}

func Comments(postID int) *apiclient.Endpoint[[]Comment] {
	return apiclient.JSON[[]Comment](apiclient.Get("/posts/" + strconv.Itoa(postID) + "/comments"))
}

func Create(p Post) *apiclient.Endpoint[Post] {
	return apiclient.JSON[Post](apiclient.Post("/posts").JSONBody(p))
}

func Delete(id int) *apiclient.Endpoint[apiclient.Void] {
	return apiclient.Empty(apiclient.Delete("/posts/" + strconv.Itoa(id)))
}

//go:embed fixtures
var fixtures embed.FS

// RegisterFixtures answers every read endpoint from the embedded fixtures.
// It returns false if any fixture failed to load; the failing endpoint then
// answers with the load error.
func RegisterFixtures(r *apiclient.Registry) bool {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		return false
	}
	loader := apiclient.FSLoader{FS: sub}

	ok := apiclient.RegisterFromFile[[]Post](r, apiclient.Path(`^/posts$`), loader, "posts.json")
	ok = apiclient.RegisterFromFile[[]Comment](r, apiclient.Path(`^/posts/\d+/comments$`), loader, "comments.json") && ok
	ok = apiclient.RegisterFromFile[User](r, apiclient.Path(`^/users/\d+$`), loader, "user.yaml") && ok

	apiclient.RegisterFunc(r, apiclient.Path(`^/posts/\d+$`), func(req apiclient.Request) (Post, error) {
		id, _ := strconv.Atoi(req.Path()[len("/posts/"):])
		return Post{UserID: 1, ID: id, Title: "Fixture post " + strconv.Itoa(id)}, nil
	})
	apiclient.RegisterError[Post](r, "offline mode: writes are disabled", apiclient.MethodIs(apiclient.MethodPost))

	return ok
}
