package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/fio"
	"github.com/Paranoid-AF/hollow/spec"
	"github.com/Paranoid-AF/hollow/spectest"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "hollow-config")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOLLOW_CONFIG_DIR", dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&app{loader: spec.NewFSLoader(spectest.FS())})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "hollow dev\n" {
		t.Errorf("got %q, want %q", out, "hollow dev\n")
	}
}

func TestAddEchoJSON(t *testing.T) {
	out, errOut, err := run(t, "add", "sts.get_caller_identity", "-", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(out), &data); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	response := data["clients"].(map[string]any)["sts"].(map[string]any)["get_caller_identity"].(map[string]any)
	for _, key := range []string{"UserId", "Account", "Arn"} {
		if response[key] != "..." {
			t.Errorf("%s = %v, want placeholder", key, response[key])
		}
	}
	if !strings.Contains(errOut, "[ECHOED]") {
		t.Errorf("stderr %q should report the echo", errOut)
	}
}

func TestAddEchoDefaultFormat(t *testing.T) {
	t.Setenv("HOLLOW_CONFIG_DIR", t.TempDir())
	t.Setenv("HOLLOW_FORMAT", "")

	out, _, err := run(t, "add", "s3.delete_object", "-")
	if err != nil {
		t.Fatal(err)
	}
	want := "clients:\n  s3:\n    delete_object: {}\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func TestAddWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")

	for i := 0; i < 2; i++ {
		out, _, err := run(t, "add", "sts.get_caller_identity", path, "--prefix", "test.sts")
		if err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
		if out != "[ADDED] New call has been added to the configs.\n" {
			t.Errorf("add %d printed %q", i, out)
		}
	}

	data, err := fio.Read(path, []string{"test", "sts"}, "")
	if err != nil {
		t.Fatal(err)
	}
	queue, ok := data["clients"].(map[string]any)["sts"].(map[string]any)["get_caller_identity"].([]any)
	if !ok || len(queue) != 2 {
		t.Errorf("expected a two-response queue, got %#v", data["clients"])
	}
}

func TestAddKeepsOtherContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.toml")
	doc := "name = \"demo\"\n\n[clients.sts.get_caller_identity]\nAccount = \"1\"\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := run(t, "add", "sqs.list_queues", path); err != nil {
		t.Fatal(err)
	}

	data, err := fio.Read(path, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	services := data["clients"].(map[string]any)
	if _, ok := services["sts"].(map[string]any)["get_caller_identity"]; !ok {
		t.Error("existing response was dropped")
	}
	if _, ok := services["sqs"].(map[string]any)["list_queues"].([]any); !ok {
		t.Errorf("list_queues = %#v, want a queue", services["sqs"])
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `name = "demo"`) {
		t.Errorf("unrelated key was dropped:\n%s", raw)
	}
}

func TestAddErrors(t *testing.T) {
	if _, _, err := run(t, "add", "sts", "-"); err == nil {
		t.Error("expected error for operation without a method")
	}

	_, _, err := run(t, "add", "sts.get_caller_identiti", "-")
	var missing *hollow.NoSuchMethodError
	if !errors.As(err, &missing) {
		t.Errorf("expected *hollow.NoSuchMethodError, got %v", err)
	}

	if _, _, err := run(t, "add", "sts.get_caller_identity"); err == nil {
		t.Error("expected error for missing path argument")
	}
}

func TestAddKeepsUnparseableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	doc := `other:
  note: "unterminated
clients:
  sts:
    get_caller_identity:
      UserId: KEEP_ME
  s3:
    list_buckets: {}
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "add", "sts.get_caller_identity", path)
	var cfgErr *hollow.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected *hollow.ConfigError, got %v", err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing", out)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != doc {
		t.Errorf("file was modified:\n%s", raw)
	}
}

func TestAddMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "new.json")
	if _, _, err := run(t, "add", "s3.delete_object", path); err != nil {
		t.Fatal(err)
	}
	data, err := fio.Read(path, nil, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := data["clients"].(map[string]any)["s3"].(map[string]any)["delete_object"]; !ok {
		t.Errorf("delete_object missing from %#v", data)
	}
}

func TestAddPrefixFromConfig(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("HOLLOW_CONFIG_DIR", cfgDir)
	cfg := `{"version": 1, "files": {"format": "yaml", "prefix": "test.sts"}}`
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "fixture.yaml")

	if _, _, err := run(t, "add", "sts.get_caller_identity", path); err != nil {
		t.Fatal(err)
	}

	data, err := fio.Read(path, []string{"test", "sts"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := data["clients"].(map[string]any)["sts"]; !ok {
		t.Errorf("expected data under the configured prefix, got %#v", data)
	}
}
