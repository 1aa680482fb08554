package urid

import (
	"sync"
	"testing"
)

func TestMapIsStable(t *testing.T) {
	m := New()
	a := m.Map("http://lv2plug.in/ns/ext/midi#MidiEvent")
	b := m.Map("http://lv2plug.in/ns/ext/atom#Sequence")
	if a == 0 || b == 0 || a == b {
		t.Fatalf("ids = %d, %d; want distinct non-zero", a, b)
	}
	if again := m.Map("http://lv2plug.in/ns/ext/midi#MidiEvent"); again != a {
		t.Fatalf("remap = %d, want %d", again, a)
	}
	if got := m.Unmap(b); got != "http://lv2plug.in/ns/ext/atom#Sequence" {
		t.Fatalf("Unmap(%d) = %q", b, got)
	}
	if got := m.Unmap(0); got != "" {
		t.Fatalf("Unmap(0) = %q, want empty", got)
	}
	if got := m.Unmap(99); got != "" {
		t.Fatalf("Unmap(99) = %q, want empty", got)
	}
}

func TestMapConcurrent(t *testing.T) {
	m := New()
	uris := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, u := range uris {
				m.Map(u)
			}
		}()
	}
	wg.Wait()
	for _, u := range uris {
		id := m.Map(u)
		if m.Unmap(id) != u {
			t.Fatalf("Unmap(Map(%q)) = %q", u, m.Unmap(id))
		}
	}
	if got := m.Map("e"); got != 5 {
		t.Fatalf("next id = %d, want 5", got)
	}
}
