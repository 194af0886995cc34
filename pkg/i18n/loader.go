package i18n

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed dict/*.yaml
var builtin embed.FS

// Loader produces the dictionary used by an editor.
type Loader interface {
	Load(ctx context.Context) (Dictionary, error)
}

// LoaderFunc adapts a function into a Loader.
type LoaderFunc func(ctx context.Context) (Dictionary, error)

func (f LoaderFunc) Load(ctx context.Context) (Dictionary, error) {
	return f(ctx)
}

// Static returns a loader that always yields dict.
func Static(dict Dictionary) Loader {
	return LoaderFunc(func(ctx context.Context) (Dictionary, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return dict, nil
	})
}

// FSLoader reads every .yaml, .yml and .json file under Root in FS. JSON is
// parsed by the YAML decoder.
type FSLoader struct {
	FS   fs.FS
	Root string
}

// Load decodes and pivots all dictionary files, in lexical order.
func (l FSLoader) Load(ctx context.Context) (Dictionary, error) {
	if l.FS == nil {
		return nil, fmt.Errorf("i18n: loader has no filesystem")
	}
	root := l.Root
	if root == "" {
		root = "."
	}
	var files []string
	err := fs.WalkDir(l.FS, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml", ".json":
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("i18n: walk %s: %w", root, err)
	}
	sort.Strings(files)

	dict := Dictionary{}
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := fs.ReadFile(l.FS, name)
		if err != nil {
			return nil, fmt.Errorf("i18n: read %s: %w", name, err)
		}
		entries, err := Decode(raw)
		if err != nil {
			return nil, fmt.Errorf("i18n: decode %s: %w", name, err)
		}
		dict = dict.Merge(Pivot(entries))
	}
	return dict, nil
}

// FileLoader loads a single dictionary file from disk.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load(ctx context.Context) (Dictionary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("i18n: read %s: %w", l.Path, err)
	}
	entries, err := Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("i18n: decode %s: %w", l.Path, err)
	}
	return Pivot(entries), nil
}

// Decode parses a list of entries from YAML or JSON.
func Decode(raw []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Builtin returns a loader for the dictionary shipped with the module.
func Builtin() Loader {
	return FSLoader{FS: builtin, Root: "dict"}
}

// Chain layers the dictionaries of several loaders, later loaders winning.
func Chain(loaders ...Loader) Loader {
	return LoaderFunc(func(ctx context.Context) (Dictionary, error) {
		dict := Dictionary{}
		for _, loader := range loaders {
			if loader == nil {
				continue
			}
			next, err := loader.Load(ctx)
			if err != nil {
				return nil, err
			}
			dict = dict.Merge(next)
		}
		return dict, nil
	})
}
