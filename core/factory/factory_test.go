package factory

import (
	"errors"
	"reflect"
	"testing"
)

type sample struct{ A int }

type sampleConf struct {
	A int `json:"a"`
}

func newSample(c sampleConf) (*sample, error) {
	if c.A < 0 {
		return nil, errors.New("a must be positive")
	}
	return &sample{A: c.A}, nil
}

func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", Typed(newSample)); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %d", inst.A)
	}
	if _, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": -1}}); err == nil {
		t.Fatal("expected constructor error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": "three"}}); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	if _, err := reg.Create(ModuleConfig{Type: "y"}); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected unknown type error, got %v", err)
	}
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry[int]()
	for _, n := range []string{"gurobi", "nop", "influx"} {
		if err := reg.Register(n, func(map[string]any) (int, error) { return 0, nil }); err != nil {
			t.Fatalf("register %s: %v", n, err)
		}
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"gurobi", "influx", "nop"}) {
		t.Fatalf("unexpected names %v", got)
	}
}

// Environment overrides arrive as strings and must still decode.
func TestDecode_WeakTypes(t *testing.T) {
	var c sampleConf
	if err := Decode(map[string]any{"a": "7"}, &c); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.A != 7 {
		t.Fatalf("expected 7 got %d", c.A)
	}
}
