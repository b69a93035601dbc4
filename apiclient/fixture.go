package apiclient

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

// ResourceLoader reads fixture files by name.
// A missing file must produce an error wrapping fs.ErrNotExist.
type ResourceLoader interface {
	Load(name string) ([]byte, error)
}

// FSLoader loads fixtures from a file system, such as an embed.FS.
//
//	//go:embed testdata
//	var fixtures embed.FS
//
//	loader := apiclient.FSLoader{FS: fixtures}
type FSLoader struct {
	FS fs.FS
}

// Load implements ResourceLoader.
func (l FSLoader) Load(name string) ([]byte, error) {
	return fs.ReadFile(l.FS, name)
}

// DirLoader loads fixtures from a directory on disk.
func DirLoader(dir string) FSLoader {
	return FSLoader{FS: os.DirFS(dir)}
}

// RegisterFromFile decodes the fixture fileName into T and registers it as a
// substitute for criteria.
//
// Files ending in ".yaml" or ".yml" are decoded as YAML, every other file as
// JSON. When the file cannot be read or decoded, an error entry carrying the
// failure is registered for the same type and criteria instead, so the
// matching calls fail rather than reach the network, and false is returned.
//
//	ok := apiclient.RegisterFromFile[[]Post](registry, apiclient.Path(`^/posts$`),
//	    apiclient.DirLoader("testdata"), "posts.json")
func RegisterFromFile[T any](r *Registry, criteria MatchCriteria, loader ResourceLoader, fileName string) bool {
	value, err := loadFixture[T](loader, fileName)
	if err != nil {
		RegisterError[T](r, err.Error(), criteria)
		return false
	}
	RegisterSubstitute(r, value, criteria)
	return true
}

func loadFixture[T any](loader ResourceLoader, fileName string) (T, error) {
	var v T

	data, err := loader.Load(fileName)
	if err != nil {
		return v, fmt.Errorf("load fixture %s: %w", fileName, err)
	}

	switch strings.ToLower(path.Ext(fileName)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &v)
	default:
		v, err = decodeJSON[T](NewDecoder(), data)
	}
	if err != nil {
		return v, fmt.Errorf("parse fixture %s: %w", fileName, err)
	}
	return v, nil
}
