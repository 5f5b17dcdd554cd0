package admin

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/brochure/lib/content"
)

const maxPageSize = 200

// listing is the response of every list endpoint.
type listing[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
}

// resource is JSON CRUD over one content table.
type resource[T any] struct {
	repo   *content.Repo[T]
	filter func(r *http.Request, opts *content.ListOptions) error
}

func mount[T any](r chi.Router, pattern string, res resource[T]) {
	r.Route(pattern, func(r chi.Router) {
		r.Get("/", res.list)
		r.Post("/", res.create)
		r.Get("/{id}", res.get)
		r.Put("/{id}", res.update)
		r.Delete("/{id}", res.remove)
	})
}

func listOptions(r *http.Request) (content.ListOptions, error) {
	var opts content.ListOptions
	q := r.URL.Query()

	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"limit", &opts.Limit},
		{"offset", &opts.Offset},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return opts, fmt.Errorf("admin: %s must be a non-negative integer", p.name)
		}
		*p.dst = n
	}

	if opts.Limit == 0 || opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}

	if v := q.Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("admin: active must be a boolean")
		}
		opts.ActiveOnly = active
	}

	return opts, nil
}

func (res resource[T]) list(w http.ResponseWriter, r *http.Request) {
	opts, err := listOptions(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if res.filter != nil {
		if err := res.filter(r, &opts); err != nil {
			badRequest(w, r, err)
			return
		}
	}

	items, err := res.repo.List(r.Context(), opts)
	if err != nil {
		fail(w, r, err)
		return
	}

	total, err := res.repo.Count(r.Context(), opts)
	if err != nil {
		fail(w, r, err)
		return
	}

	if items == nil {
		items = []T{}
	}

	writeJSON(w, r, http.StatusOK, listing[T]{Items: items, Total: total})
}

func (res resource[T]) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	rec, err := res.repo.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, rec)
}

func (res resource[T]) create(w http.ResponseWriter, r *http.Request) {
	rec := new(T)
	if err := readJSON(w, r, rec); err != nil {
		badRequest(w, r, err)
		return
	}

	if err := res.repo.Create(r.Context(), rec); err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusCreated, rec)
}

func (res resource[T]) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	rec := new(T)
	if err := readJSON(w, r, rec); err != nil {
		badRequest(w, r, err)
		return
	}

	updated, err := res.repo.Update(r.Context(), id, rec)
	if err != nil {
		fail(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, updated)
}

func (res resource[T]) remove(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		badRequest(w, r, err)
		return
	}

	if err := res.repo.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// filterUint turns ?param=N into a column filter.
func filterUint(param, column string) func(*http.Request, *content.ListOptions) error {
	return func(r *http.Request, opts *content.ListOptions) error {
		v := r.URL.Query().Get(param)
		if v == "" {
			return nil
		}
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("admin: %s must be an id", param)
		}
		opts.Where = map[string]any{column: uint(n)}
		return nil
	}
}

func filterBool(param, column string) func(*http.Request, *content.ListOptions) error {
	return func(r *http.Request, opts *content.ListOptions) error {
		v := r.URL.Query().Get(param)
		if v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("admin: %s must be a boolean", param)
		}
		opts.Where = map[string]any{column: b}
		return nil
	}
}
