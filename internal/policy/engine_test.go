package policy

import (
	"context"
	"testing"
)

func TestDefaultPolicyAllows(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, err := engine.Evaluate(ctx, map[string]interface{}{
		"tool_name": "write_file",
		"args":      map[string]interface{}{"path": "a.txt", "content": "hi"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != DecisionAllow {
		t.Fatalf("expected allow, got %s", decision)
	}
}

func TestDefaultPolicyBlocksDelete(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, DefaultPolicy)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, err := engine.Evaluate(ctx, map[string]interface{}{
		"tool_name": "delete_path",
		"args":      map[string]interface{}{"path": "a.txt"},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != DecisionBlock {
		t.Fatalf("expected block, got %s", decision)
	}
}

func TestCustomPolicy(t *testing.T) {
	ctx := context.Background()
	engine, err := NewEngine(ctx, `
package tool_policy

default decision = "block"

decision = "allow" {
	input.tool_name == "read_file"
}
`)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}

	decision, err := engine.Evaluate(ctx, map[string]interface{}{"tool_name": "read_file"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != DecisionAllow {
		t.Fatalf("expected allow, got %s", decision)
	}

	decision, err = engine.Evaluate(ctx, map[string]interface{}{"tool_name": "write_file"})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if decision != DecisionBlock {
		t.Fatalf("expected block, got %s", decision)
	}
}
