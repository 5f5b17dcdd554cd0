package internal

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// gzipPools holds one *sync.Pool of writers per compression level.
var gzipPools sync.Map

func gzipWriter(level int, w io.Writer) (*gzip.Writer, func(), error) {
	p, _ := gzipPools.LoadOrStore(level, &sync.Pool{})
	pool := p.(*sync.Pool)

	gz, ok := pool.Get().(*gzip.Writer)
	if ok {
		gz.Reset(w)
	} else {
		var err error
		if gz, err = gzip.NewWriterLevel(w, level); err != nil {
			return nil, nil, err
		}
	}

	return gz, func() {
		gz.Close()
		pool.Put(gz)
	}, nil
}

func acceptsGzip(r *http.Request) bool {
	for _, enc := range strings.Split(r.Header.Get("Accept-Encoding"), ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(enc), ";")
		if name == "gzip" && strings.ReplaceAll(params, " ", "") != "q=0" {
			return true
		}
	}
	return false
}

// GzipMiddleware compresses page responses for clients that accept gzip.
// HEAD requests pass through untouched.
func GzipMiddleware(level int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Encoding")

		if r.Method == http.MethodHead || !acceptsGzip(r) {
			next.ServeHTTP(w, r)
			return
		}

		gz, done, err := gzipWriter(level, w)
		if err != nil {
			GetRequestLogger(r).Error("can't compress response, sending it plain", "err", err)
			next.ServeHTTP(w, r)
			return
		}
		defer done()

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")

		next.ServeHTTP(gzipResponseWriter{ResponseWriter: w, sink: gz}, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	sink *gzip.Writer
}

func (w gzipResponseWriter) Write(b []byte) (int, error) {
	return w.sink.Write(b)
}
