package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// sandbox is an in-memory file store shared by the builtin filesystem tools.
// It gives the model a scratch space for notes and documents without touching
// the real filesystem.
type sandbox struct {
	mu    sync.RWMutex
	files map[string]string
}

func init() {
	RegisterSandbox(DefaultRegistry)
}

// RegisterSandbox registers the sandboxed filesystem tools on the given
// registry. Each call creates a fresh, isolated sandbox.
func RegisterSandbox(r *Registry) {
	sb := &sandbox{files: make(map[string]string)}

	r.MustRegister(Tool{
		Definition: Definition{
			Name:        "write_file",
			Description: "Writes content to a file in the sandbox, creating or overwriting it.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path of the resulting file"},
					"content": {"type": "string", "description": "Content of the resulting file"}
				},
				"required": ["path", "content"]
			}`),
		},
		Execute: sb.writeFile,
	})
	r.MustRegister(Tool{
		Definition: Definition{
			Name:        "read_file",
			Description: "Reads the content of a file in the sandbox.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path of the file to read"}
				},
				"required": ["path"]
			}`),
		},
		Execute: sb.readFile,
	})
	r.MustRegister(Tool{
		Definition: Definition{
			Name:        "list_files",
			Description: "Lists all files in the sandbox, optionally under a path prefix.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"prefix": {"type": "string", "description": "Optional path prefix to filter by"}
				}
			}`),
		},
		Execute: sb.listFiles,
	})
	r.MustRegister(Tool{
		Definition: Definition{
			Name:        "delete_path",
			Description: "Permanently deletes the file at a given path in the sandbox.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"path": {"type": "string", "description": "Path of the file to delete"}
				},
				"required": ["path"]
			}`),
		},
		Execute: sb.deletePath,
	})
}

func (sb *sandbox) writeFile(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var payload struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	if payload.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	sb.mu.Lock()
	sb.files[payload.Path] = payload.Content
	sb.mu.Unlock()
	return json.RawMessage(fmt.Sprintf(`{"written":%q}`, payload.Path)), nil
}

func (sb *sandbox) readFile(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var payload struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	sb.mu.RLock()
	content, ok := sb.files[payload.Path]
	sb.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("file %s not found", payload.Path)
	}
	out, err := json.Marshal(map[string]string{"path": payload.Path, "content": content})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (sb *sandbox) listFiles(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var payload struct {
		Prefix string `json:"prefix"`
	}
	if len(args) > 0 {
		if err := json.Unmarshal(args, &payload); err != nil {
			return nil, fmt.Errorf("invalid args: %w", err)
		}
	}
	sb.mu.RLock()
	var paths []string
	for p := range sb.files {
		if payload.Prefix == "" || strings.HasPrefix(p, payload.Prefix) {
			paths = append(paths, p)
		}
	}
	sb.mu.RUnlock()
	sort.Strings(paths)
	out, err := json.Marshal(map[string][]string{"files": paths})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (sb *sandbox) deletePath(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
	var payload struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal(args, &payload); err != nil {
		return nil, fmt.Errorf("invalid args: %w", err)
	}
	sb.mu.Lock()
	_, ok := sb.files[payload.Path]
	delete(sb.files, payload.Path)
	sb.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("file %s not found", payload.Path)
	}
	return json.RawMessage(fmt.Sprintf(`{"deleted":%q}`, payload.Path)), nil
}
