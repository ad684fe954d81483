package server

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// staticFS serves files from root but hides dotfiles (.env, .git/...) and
// directories that have no index.html, so nothing is ever listed.
type staticFS struct {
	root http.FileSystem
}

func newStaticFS(dir string) http.FileSystem {
	return staticFS{root: http.Dir(dir)}
}

func (s staticFS) Open(name string) (http.File, error) {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return nil, fs.ErrNotExist
		}
	}

	f, err := s.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.IsDir() {
		return f, nil
	}

	index, err := s.root.Open(path.Join(name, "index.html"))
	if err != nil {
		f.Close()
		return nil, fs.ErrNotExist
	}
	index.Close()
	return f, nil
}
