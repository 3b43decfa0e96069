package spec

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/shape"
	"github.com/Paranoid-AF/hollow/spectest"
)

func TestLoadPicksNewestVersion(t *testing.T) {
	l := NewFSLoader(spectest.FS())
	version, err := l.LatestVersion("dynamodb")
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if version != "2012-08-10" {
		t.Errorf("LatestVersion = %q, want %q", version, "2012-08-10")
	}

	g, err := l.Load("dynamodb")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !g.Has("get_item") {
		t.Error("expected GetItem from the newest version")
	}
	if g.Depth != shape.DefaultDepth {
		t.Errorf("Depth = %d, want %d", g.Depth, shape.DefaultDepth)
	}
}

func TestLoadSkipsNonVersionDirs(t *testing.T) {
	l := NewFSLoader(spectest.FS())
	version, err := l.LatestVersion("sqs")
	if err != nil {
		t.Fatalf("LatestVersion: %v", err)
	}
	if version != "2012-11-05" {
		t.Errorf("LatestVersion = %q, want %q", version, "2012-11-05")
	}
}

func TestLoadMissingService(t *testing.T) {
	l := NewFSLoader(spectest.FS())
	_, err := l.Load("nope")
	var cfgErr *hollow.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *hollow.ConfigError, got %T (%v)", err, err)
	}
}

func TestLoadRejectsPathService(t *testing.T) {
	l := NewFSLoader(spectest.FS())
	_, err := l.Load("../s3")
	var cfgErr *hollow.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *hollow.ConfigError, got %T (%v)", err, err)
	}
}

func TestLoadVersionWithoutSpecFile(t *testing.T) {
	fsys := fstest.MapFS{
		"foo/2020-01-01/paginators-1.json": {Data: []byte(`{}`)},
	}
	_, err := NewFSLoader(fsys).Load("foo")
	var cfgErr *hollow.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *hollow.ConfigError, got %T (%v)", err, err)
	}
}

func TestLoadInvalidSpecFile(t *testing.T) {
	fsys := fstest.MapFS{
		"foo/2020-01-01/service-2.json": {Data: []byte(`{"shapes": [`)},
	}
	_, err := NewFSLoader(fsys).Load("foo")
	var cfgErr *hollow.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *hollow.ConfigError, got %T (%v)", err, err)
	}
}

func TestAugmentationsAddS3TransferMethods(t *testing.T) {
	l := NewFSLoader(spectest.FS())
	g, err := l.Load("s3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, name := range []string{"upload_file", "upload_fileobj", "download_file", "download_fileobj"} {
		if !g.Has(name) {
			t.Errorf("expected augmented method %s", name)
		}
	}

	m, _ := g.Method("upload_file")
	in := m.Input()
	if got := in.Members.Names(); len(got) != 6 || got[0] != "Filename" {
		t.Errorf("upload_file members = %v", got)
	}
	bucket, _ := in.Members.Get("Bucket")
	if bucket.Type != shape.TypeString {
		t.Errorf("Bucket type = %q, want %q", bucket.Type, shape.TypeString)
	}
	if m.Output() != nil {
		t.Errorf("upload_file should have no output, got %+v", m.Output())
	}

	l.Augment = false
	g, err = l.Load("s3")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if g.Has("upload_file") {
		t.Error("upload_file should be absent without augmentations")
	}
}

func TestAugmentationMissingService(t *testing.T) {
	doc, err := Augmentation("sts")
	if err != nil {
		t.Fatalf("Augmentation: %v", err)
	}
	if doc != nil {
		t.Errorf("expected no overlay for sts, got %+v", doc)
	}
}

func TestServices(t *testing.T) {
	names, err := NewFSLoader(spectest.FS()).Services()
	if err != nil {
		t.Fatalf("Services: %v", err)
	}
	want := spectest.Services()
	if len(names) != len(want) {
		t.Fatalf("Services = %v, want %v", names, want)
	}
}

type countingLoader struct {
	Loader
	calls int
}

func (c *countingLoader) Load(service string) (*shape.Graph, error) {
	c.calls++
	return c.Loader.Load(service)
}

func TestCacheLoadsOnce(t *testing.T) {
	counting := &countingLoader{Loader: NewFSLoader(spectest.FS())}
	c := NewCache(counting, 0)
	defer c.Close()

	first, err := c.Load("sts")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := c.Load("sts")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Error("expected the cached graph to be returned")
	}
	if counting.calls != 1 {
		t.Errorf("loader called %d times, want 1", counting.calls)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	counting := &countingLoader{Loader: NewFSLoader(spectest.FS())}
	c := NewCache(counting, 0)
	defer c.Close()

	for range 2 {
		if _, err := c.Load("missing"); err == nil {
			t.Fatal("expected an error")
		}
	}
	if counting.calls != 2 {
		t.Errorf("loader called %d times, want 2", counting.calls)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}
