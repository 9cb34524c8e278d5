package client

import (
	"net/http"
	"net/url"

	"github.com/google/go-querystring/query"
	"github.com/lanraragi/lrrctl/internal/model"
)

// Route is a method and a path relative to the server url, query included.
type Route struct {
	Method string
	Path   string
}

type queueQuery struct {
	Plugin string `url:"plugin"`
	Arg    string `url:"arg"`
}

type regenQuery struct {
	Force int `url:"force"`
}

func withQuery(method, path string, q any) Route {
	// query.Values fails for non struct input only
	v, _ := query.Values(q)
	return Route{Method: method, Path: path + "?" + v.Encode()}
}

func MinionJob(id model.JobID) Route {
	return Route{Method: http.MethodGet, Path: "/api/minion/" + url.PathEscape(id.String())}
}

func PluginQueue(plugin, arg string) Route {
	return withQuery(http.MethodPost, "/api/plugins/queue", queueQuery{Plugin: plugin, Arg: arg})
}

func TempFolder() Route {
	return Route{Method: http.MethodDelete, Path: "/api/tempfolder"}
}

func SearchCache() Route {
	return Route{Method: http.MethodDelete, Path: "/api/search/cache"}
}

func NewFlags() Route {
	return Route{Method: http.MethodDelete, Path: "/api/database/isnew"}
}

func DropDatabase() Route {
	return Route{Method: http.MethodPost, Path: "/api/database/drop"}
}

func CleanDatabase() Route {
	return Route{Method: http.MethodPost, Path: "/api/database/clean"}
}

func RegenThumbnails(force bool) Route {
	q := regenQuery{}
	if force {
		q.Force = 1
	}
	return withQuery(http.MethodPost, "/api/regen_thumbs", q)
}

func categoryArchive(method, category, archive string) Route {
	return Route{Method: method, Path: "/api/categories/" + url.PathEscape(category) + "/" + url.PathEscape(archive)}
}

func AddToCategory(category, archive string) Route {
	return categoryArchive(http.MethodPut, category, archive)
}

func RemoveFromCategory(category, archive string) Route {
	return categoryArchive(http.MethodDelete, category, archive)
}

func DeleteArchive(id string) Route {
	return Route{Method: http.MethodDelete, Path: "/api/archives/" + url.PathEscape(id)}
}

// FormPost is the route a Form is saved to.
func FormPost(path string) Route {
	return Route{Method: http.MethodPost, Path: path}
}

// String is the route as it appears in logs.
func (r Route) String() string {
	return r.Method + " " + r.Path
}
