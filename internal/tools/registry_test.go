package tools

import (
	"context"
	"encoding/json"
	"testing"
)

func TestRegistryRegisterAndExecute(t *testing.T) {
	r := NewRegistry()
	err := r.Register(Tool{
		Definition: Definition{Name: "echo"},
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			return args, nil
		},
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	out, err := r.Execute(context.Background(), "echo", json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if string(out) != `{"a":1}` {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestRegistryDuplicateName(t *testing.T) {
	r := NewRegistry()
	tool := Tool{
		Definition: Definition{Name: "dup"},
		Execute: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			return nil, nil
		},
	}
	if err := r.Register(tool); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(tool); err == nil {
		t.Fatal("expected error on duplicate registration")
	}
}

func TestRegistryUnknownTool(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Execute(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	RegisterSandbox(r)

	defs := r.List()
	want := []string{"delete_path", "list_files", "read_file", "write_file"}
	if len(defs) != len(want) {
		t.Fatalf("expected %d tools, got %d", len(want), len(defs))
	}
	for i, name := range want {
		if defs[i].Name != name {
			t.Fatalf("tool %d: expected %s, got %s", i, name, defs[i].Name)
		}
	}
}

func TestSandboxRoundTrip(t *testing.T) {
	r := NewRegistry()
	RegisterSandbox(r)
	ctx := context.Background()

	if _, err := r.Execute(ctx, "write_file", json.RawMessage(`{"path":"notes/a.txt","content":"hello"}`)); err != nil {
		t.Fatalf("write_file failed: %v", err)
	}

	out, err := r.Execute(ctx, "read_file", json.RawMessage(`{"path":"notes/a.txt"}`))
	if err != nil {
		t.Fatalf("read_file failed: %v", err)
	}
	var read struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(out, &read); err != nil {
		t.Fatalf("decode read result: %v", err)
	}
	if read.Content != "hello" {
		t.Fatalf("unexpected content: %q", read.Content)
	}

	out, err = r.Execute(ctx, "list_files", json.RawMessage(`{"prefix":"notes/"}`))
	if err != nil {
		t.Fatalf("list_files failed: %v", err)
	}
	var listed struct {
		Files []string `json:"files"`
	}
	if err := json.Unmarshal(out, &listed); err != nil {
		t.Fatalf("decode list result: %v", err)
	}
	if len(listed.Files) != 1 || listed.Files[0] != "notes/a.txt" {
		t.Fatalf("unexpected files: %+v", listed.Files)
	}

	if _, err := r.Execute(ctx, "delete_path", json.RawMessage(`{"path":"notes/a.txt"}`)); err != nil {
		t.Fatalf("delete_path failed: %v", err)
	}
	if _, err := r.Execute(ctx, "read_file", json.RawMessage(`{"path":"notes/a.txt"}`)); err == nil {
		t.Fatal("expected error reading deleted file")
	}
}
