package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/emberfall/internal/chronicle"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "chronicle.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return store
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestAppendAndGetNode(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	id, err := store.AppendNode(ctx, chronicle.Node{
		ActionKind: "dialogue",
		ActionName: "greet",
		Narrative:  "A guard nods.",
		Success:    true,
		StateJSON:  []byte(`{"health":100}`),
		CreatedAt:  created,
	})
	if err != nil {
		t.Fatalf("append node: %v", err)
	}
	if id <= 0 {
		t.Fatalf("id = %d, want positive", id)
	}

	node, err := store.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if node.ID != id || node.ParentID != 0 {
		t.Fatalf("node = %+v", node)
	}
	if node.ActionKind != "dialogue" || node.ActionName != "greet" {
		t.Fatalf("node = %+v", node)
	}
	if !node.Success || node.Narrative != "A guard nods." {
		t.Fatalf("node = %+v", node)
	}
	if string(node.StateJSON) != `{"health":100}` {
		t.Fatalf("state json = %s", node.StateJSON)
	}
	if !node.CreatedAt.Equal(created) {
		t.Fatalf("created at = %v, want %v", node.CreatedAt, created)
	}
}

func TestAppendNodeValidation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if _, err := store.AppendNode(ctx, chronicle.Node{ActionKind: " "}); err == nil {
		t.Fatal("expected error for empty action kind")
	}
	if _, err := store.AppendNode(ctx, chronicle.Node{ActionKind: "combat", ParentID: -1}); err == nil {
		t.Fatal("expected error for negative parent id")
	}
}

func TestAppendNodeDefaultsCreatedAt(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Truncate(time.Millisecond)
	id, err := store.AppendNode(ctx, chronicle.Node{ActionKind: "exploration"})
	if err != nil {
		t.Fatalf("append node: %v", err)
	}
	node, err := store.GetNode(ctx, id)
	if err != nil {
		t.Fatalf("get node: %v", err)
	}
	if node.CreatedAt.Before(before) {
		t.Fatalf("created at = %v, want >= %v", node.CreatedAt, before)
	}
}

func TestGetNodeNotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.GetNode(context.Background(), 42)
	if !errors.Is(err, chronicle.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListChildren(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rootID, err := store.AppendNode(ctx, chronicle.Node{ActionKind: "exploration"})
	if err != nil {
		t.Fatalf("append root: %v", err)
	}
	firstID, err := store.AppendNode(ctx, chronicle.Node{ParentID: rootID, ActionKind: "combat"})
	if err != nil {
		t.Fatalf("append child: %v", err)
	}
	secondID, err := store.AppendNode(ctx, chronicle.Node{ParentID: rootID, ActionKind: "dialogue"})
	if err != nil {
		t.Fatalf("append child: %v", err)
	}

	children, err := store.ListChildren(ctx, rootID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children = %d, want 2", len(children))
	}
	if children[0].ID != firstID || children[1].ID != secondID {
		t.Fatalf("order = %d, %d, want %d, %d", children[0].ID, children[1].ID, firstID, secondID)
	}

	roots, err := store.ListChildren(ctx, 0)
	if err != nil {
		t.Fatalf("list roots: %v", err)
	}
	if len(roots) != 1 || roots[0].ID != rootID {
		t.Fatalf("roots = %+v", roots)
	}
}

func TestPath(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rootID, err := store.AppendNode(ctx, chronicle.Node{ActionKind: "exploration"})
	if err != nil {
		t.Fatalf("append root: %v", err)
	}
	midID, err := store.AppendNode(ctx, chronicle.Node{ParentID: rootID, ActionKind: "combat"})
	if err != nil {
		t.Fatalf("append mid: %v", err)
	}
	leafID, err := store.AppendNode(ctx, chronicle.Node{ParentID: midID, ActionKind: "dialogue"})
	if err != nil {
		t.Fatalf("append leaf: %v", err)
	}

	path, err := store.Path(ctx, leafID)
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if len(path) != 3 {
		t.Fatalf("path = %d nodes, want 3", len(path))
	}
	if path[0].ID != rootID || path[1].ID != midID || path[2].ID != leafID {
		t.Fatalf("path order = %d, %d, %d", path[0].ID, path[1].ID, path[2].ID)
	}
}

func TestNilStoreGuards(t *testing.T) {
	var store *Store
	ctx := context.Background()

	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if _, err := store.AppendNode(ctx, chronicle.Node{ActionKind: "combat"}); err == nil {
		t.Fatal("expected error appending on nil store")
	}
	if _, err := store.GetNode(ctx, 1); err == nil {
		t.Fatal("expected error reading nil store")
	}
}
