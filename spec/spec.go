// Package spec locates service specifications on disk (or in any fs.FS) and
// turns them into shape graphs.
//
// The expected layout matches an SDK data directory:
//
//	<root>/<service>/<api-version>/service-2.json
//
// When several API versions are present the newest one is used.
package spec

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/Paranoid-AF/hollow"
	defaults "github.com/Paranoid-AF/hollow/default"
	"github.com/Paranoid-AF/hollow/shape"
	"gopkg.in/yaml.v3"
)

// FileName is the specification file read from each version directory.
const FileName = "service-2.json"

// Loader produces the shape graph of a service.
type Loader interface {
	Load(service string) (*shape.Graph, error)
}

// FSLoader reads specifications from a file system.
type FSLoader struct {
	fsys fs.FS
	// Augment applies the embedded overlay for the service, if there is one.
	Augment bool
	// Depth is the resolution bound given to loaded graphs.
	Depth int
}

// NewFSLoader returns a loader reading from fsys with augmentations enabled.
func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys, Augment: true, Depth: shape.DefaultDepth}
}

// NewDirLoader returns a loader reading from a directory on disk.
func NewDirLoader(dir string) *FSLoader {
	return NewFSLoader(os.DirFS(dir))
}

// Load implements Loader.
func (l *FSLoader) Load(service string) (*shape.Graph, error) {
	version, err := l.LatestVersion(service)
	if err != nil {
		return nil, err
	}

	file := path.Join(service, version, FileName)
	data, err := fs.ReadFile(l.fsys, file)
	if err != nil {
		return nil, &hollow.ConfigError{Path: file, Err: err}
	}
	doc, err := shape.ParseDocument(data)
	if err != nil {
		return nil, &hollow.ConfigError{Path: file, Err: err}
	}

	var overlays []*shape.Document
	if l.Augment {
		overlay, err := Augmentation(service)
		if err != nil {
			return nil, err
		}
		if overlay != nil {
			overlays = append(overlays, overlay)
		}
	}

	g := shape.NewGraph(service, doc, overlays...)
	if l.Depth > 0 {
		g.Depth = l.Depth
	}
	slog.Debug("loaded service specification", "service", service, "version", version, "operations", len(g.Operations))
	return g, nil
}

// LatestVersion returns the newest API version directory for service that
// holds a specification file.
func (l *FSLoader) LatestVersion(service string) (string, error) {
	if service == "" || strings.ContainsAny(service, `/\`) {
		return "", &hollow.ConfigError{Err: fmt.Errorf("invalid service name %q", service)}
	}

	entries, err := fs.ReadDir(l.fsys, service)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &hollow.ConfigError{Path: service, Err: fmt.Errorf("no specification found for service %q", service)}
		}
		return "", &hollow.ConfigError{Path: service, Err: err}
	}

	var versions []string
	for _, e := range entries {
		if !e.IsDir() || !isVersion(e.Name()) {
			continue
		}
		if _, err := fs.Stat(l.fsys, path.Join(service, e.Name(), FileName)); err != nil {
			continue
		}
		versions = append(versions, e.Name())
	}
	if len(versions) == 0 {
		return "", &hollow.ConfigError{Path: service, Err: fmt.Errorf("no %s under any version of %q", FileName, service)}
	}

	// ISO dates sort lexically.
	sort.Strings(versions)
	return versions[len(versions)-1], nil
}

// Services lists the service directories available to the loader.
func (l *FSLoader) Services() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, &hollow.ConfigError{Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func isVersion(name string) bool {
	return len(name) == len("2006-01-02") && strings.HasPrefix(name, "20") && name[4] == '-' && name[7] == '-'
}

// Augmentation returns the embedded overlay document for service, or nil
// when the service has none.
func Augmentation(service string) (*shape.Document, error) {
	data, err := fs.ReadFile(defaults.Augmentations, path.Join("augmentations", service+".yaml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var doc shape.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("augmentation %s: %w", service, err)
	}
	return &doc, nil
}
