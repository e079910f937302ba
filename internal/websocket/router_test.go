// internal/websocket/router_test.go
package websocket

import (
	"errors"
	"testing"
)

type fakeApp struct{}

func (f *fakeApp) Ping() string { return "pong" }

func (f *fakeApp) Add(a, b int) int { return a + b }

func (f *fakeApp) Reindex(ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, errors.New("no folders")
	}
	return len(ids), nil
}

func TestRouter_Call(t *testing.T) {
	r := NewRouter(&fakeApp{})

	result, err := r.Call("Ping", nil)
	if err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
	if result != "pong" {
		t.Errorf("Ping = %v, want pong", result)
	}

	// JSON numbers decode as float64 and must narrow to int.
	result, err = r.Call("Add", []interface{}{float64(2), float64(3)})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if result != 5 {
		t.Errorf("Add = %v, want 5", result)
	}
}

func TestRouter_SliceParams(t *testing.T) {
	r := NewRouter(&fakeApp{})

	result, err := r.Call("Reindex", []interface{}{[]interface{}{"f1", "f2"}})
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if result != 2 {
		t.Errorf("Reindex = %v, want 2", result)
	}
}

func TestRouter_Errors(t *testing.T) {
	r := NewRouter(&fakeApp{})

	if _, err := r.Call("Missing", nil); err == nil {
		t.Error("expected an error for an unknown method")
	}
	if _, err := r.Call("Add", []interface{}{float64(1)}); err == nil {
		t.Error("expected an arity error")
	}
	if _, err := r.Call("Reindex", []interface{}{[]interface{}{}}); err == nil {
		t.Error("expected the method error to surface")
	}
}
