package widget_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formdraft/pkg/widget"
)

const personSchema = `{
  "type": "object",
  "required": ["name"],
  "properties": {
    "name": {"type": "string", "minLength": 2},
    "age": {"type": "integer", "minimum": 0},
    "address": {
      "type": "object",
      "properties": {"city": {"type": "string"}}
    },
    "tags": {"type": "array", "items": {"type": "string"}}
  }
}`

func TestSchemaValidate(t *testing.T) {
	schema := widget.MustParseSchema(personSchema)

	if issues := schema.Validate(map[string]any{"name": "Ada", "age": 36.0}); len(issues) != 0 {
		t.Fatalf("expected valid document, got %+v", issues)
	}

	issues := schema.Validate(map[string]any{
		"age":     -1.0,
		"address": map[string]any{"city": 12.0},
	})
	paths := make([]string, 0, len(issues))
	for _, issue := range issues {
		paths = append(paths, issue.Path)
		if issue.Message == "" {
			t.Fatalf("expected message for %s", issue.Path)
		}
	}
	want := []string{"root.address.city", "root.age", "root.name"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("issue paths mismatch (-want +got):\n%s", diff)
	}
	if issues[0].Property != "city" {
		t.Fatalf("expected property city, got %q", issues[0].Property)
	}
}

func TestParseSchemaYAML(t *testing.T) {
	schema, err := widget.ParseSchema([]byte("type: object\nrequired: [title]\nproperties:\n  title:\n    type: string\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	issues := schema.Validate(map[string]any{})
	if len(issues) != 1 || issues[0].Path != "root.title" {
		t.Fatalf("unexpected issues %+v", issues)
	}
}

func TestSchemaFromOpenAPI(t *testing.T) {
	doc := []byte(`{
  "openapi": "3.0.3",
  "info": {"title": "t", "version": "1"},
  "paths": {},
  "components": {
    "schemas": {
      "Address": {"type": "object", "required": ["city"], "properties": {"city": {"type": "string"}}},
      "Person": {
        "type": "object",
        "properties": {"home": {"$ref": "#/components/schemas/Address"}}
      }
    }
  }
}`)
	schema, err := widget.SchemaFromOpenAPI(context.Background(), doc, "Person")
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	issues := schema.Validate(map[string]any{"home": map[string]any{}})
	if len(issues) != 1 || issues[0].Path != "root.home.city" {
		t.Fatalf("unexpected issues %+v", issues)
	}

	if _, err := widget.SchemaFromOpenAPI(context.Background(), doc, "Missing"); err == nil {
		t.Fatal("expected missing component error")
	}
}

func TestLoadSchemaSources(t *testing.T) {
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "schema.json")
	if err := os.WriteFile(path, []byte(personSchema), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := widget.LoadSchema(ctx, widget.FileSource(path)); err != nil {
		t.Fatalf("file source: %v", err)
	}

	files := fstest.MapFS{"schemas/person.json": {Data: []byte(personSchema)}}
	if _, err := widget.LoadSchema(ctx, widget.FSSource("schemas/person.json"), widget.WithFileSystem(files)); err != nil {
		t.Fatalf("fs source: %v", err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/person.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(personSchema))
	}))
	defer server.Close()

	src, err := widget.ParseSource(server.URL + "/person.json")
	if err != nil || src.Kind != widget.SourceKindURL {
		t.Fatalf("parse source: %+v %v", src, err)
	}
	if _, err := widget.LoadSchema(ctx, src, widget.WithHTTPClient(server.Client())); err != nil {
		t.Fatalf("url source: %v", err)
	}

	missing, _ := widget.ParseSource(server.URL + "/missing.json")
	if _, err := widget.LoadSchema(ctx, missing, widget.WithHTTPClient(server.Client())); err == nil {
		t.Fatal("expected error for 404")
	}
}

func TestAncestors(t *testing.T) {
	want := []string{"root.a.b", "root.a", "root"}
	if diff := cmp.Diff(want, widget.Ancestors("root.a.b")); diff != "" {
		t.Fatalf("ancestors mismatch (-want +got):\n%s", diff)
	}
	if got := widget.Ancestors(""); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestValuePaths(t *testing.T) {
	got := widget.ValuePaths(map[string]any{"b": []any{"x"}, "a": 1.0})
	want := []string{"root", "root.a", "root.b", "root.b.0"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestFormLifecycle(t *testing.T) {
	mount := widget.NewMemoryMount("editor")
	factory := &widget.FormFactory{DeferReady: true}
	w, err := factory.New(context.Background(), widget.Spec{
		ID:         "editor",
		Mount:      mount,
		Schema:     widget.MustParseSchema(personSchema),
		StartValue: map[string]any{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	form := factory.Last()

	select {
	case <-w.Ready():
		t.Fatal("expected deferred readiness")
	default:
	}
	form.MarkReady()
	<-w.Ready()

	calls := 0
	cancel := w.OnChange(func() { calls++ })
	w.SetValue(map[string]any{"name": "Grace", "tags": []any{"x"}})
	cancel()
	w.SetValue(map[string]any{"name": "Linus"})
	if calls != 1 {
		t.Fatalf("expected one notification, got %d", calls)
	}

	value := w.Value().(map[string]any)
	value["name"] = "mutated"
	if diff := cmp.Diff(map[string]any{"name": "Linus"}, w.Value()); diff != "" {
		t.Fatalf("value mismatch (-want +got):\n%s", diff)
	}

	if !mount.MarkError("root.name") {
		t.Fatal("expected root.name element to exist")
	}
	if mount.MarkError("root.nowhere") {
		t.Fatal("expected unknown path to be rejected")
	}

	w.Destroy()
	w.SetValue(map[string]any{"name": "after"})
	if diff := cmp.Diff(map[string]any{"name": "Linus"}, w.Value()); diff != "" {
		t.Fatalf("destroyed form accepted value (-want +got):\n%s", diff)
	}
}

func TestFormRequiresSchemaAndMount(t *testing.T) {
	if _, err := widget.NewForm(widget.Spec{Mount: widget.NewMemoryMount("x")}, false); err != widget.ErrNoSchema {
		t.Fatalf("expected ErrNoSchema, got %v", err)
	}
	if _, err := widget.NewForm(widget.Spec{Schema: widget.MustParseSchema(`{}`)}, false); err != widget.ErrNoMount {
		t.Fatalf("expected ErrNoMount, got %v", err)
	}
}

func TestMountTable(t *testing.T) {
	table := widget.NewMountTable(widget.NewMemoryMount("a"))
	if _, ok := table.Resolve("a"); !ok {
		t.Fatal("expected mount a")
	}
	if _, ok := table.Resolve("b"); ok {
		t.Fatal("unexpected mount b")
	}
	table.Ensure("b")
	if _, ok := table.Resolve("b"); !ok {
		t.Fatal("expected ensured mount b")
	}
	table.Remove("a")
	if _, ok := table.Resolve("a"); ok {
		t.Fatal("expected mount a removed")
	}
}
