package signal

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSetGetCaseInsensitive(t *testing.T) {
	m := NewMap()
	m.Set("Color.Dominant", "blue")

	v, ok := m.Get("color.dominant")
	if !ok || v != "blue" {
		t.Fatalf("Get(color.dominant) = %v, %v; want blue, true", v, ok)
	}
	v, ok = m.Get("COLOR.DOMINANT")
	if !ok || v != "blue" {
		t.Fatalf("Get(COLOR.DOMINANT) = %v, %v; want blue, true", v, ok)
	}
}

func TestOverwrite(t *testing.T) {
	m := NewMap()
	m.Set("edge.density", 0.1)
	m.Set("Edge.Density", 0.9)

	v, _ := m.Get("edge.density")
	if v != 0.9 {
		t.Errorf("overwrite lost: got %v, want 0.9", v)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1 (case variants must collapse)", m.Len())
	}
}

func TestMerge(t *testing.T) {
	m := NewMap()
	m.Set("a.one", 1)
	m.Merge(map[string]any{"B.Two": 2, "c.three": 3})

	want := map[string]any{"a.one": 1, "b.two": 2, "c.three": 3}
	if diff := cmp.Diff(want, m.Snapshot()); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	m := NewMap()
	m.Set("text.detected", false)

	snap := m.Snapshot()
	m.Set("text.detected", true)
	m.Set("caption", "late arrival")

	if snap["text.detected"] != false {
		t.Error("snapshot saw a later overwrite")
	}
	if _, ok := snap["caption"]; ok {
		t.Error("snapshot saw a later insert")
	}
}

func TestKeysSorted(t *testing.T) {
	m := NewMap()
	m.Set("z.last", 1)
	m.Set("a.first", 2)
	m.Set("m.middle", 3)

	want := []string{"a.first", "m.middle", "z.last"}
	if diff := cmp.Diff(want, m.Keys()); diff != "" {
		t.Errorf("Keys mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentWriters(t *testing.T) {
	m := NewMap()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			m.Merge(map[string]any{
				fmt.Sprintf("unit%d.value", n): n,
				"shared.key":                   n,
			})
		}(i)
	}
	wg.Wait()

	if m.Len() != 33 {
		t.Errorf("Len = %d, want 33", m.Len())
	}
	if _, ok := m.Get("shared.key"); !ok {
		t.Error("shared.key missing after concurrent merges")
	}
}
