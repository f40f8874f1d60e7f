package fingerprint

import "testing"

func TestCanonicalJSONSortsKeys(t *testing.T) {
	a, err := CanonicalJSON(map[string]any{"b": 1, "a": []any{"x", 2}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	want := `{"a":["x",2],"b":1}`
	if string(a) != want {
		t.Fatalf("got=%s want=%s", a, want)
	}
}

func TestHashDeterministic(t *testing.T) {
	type payload struct {
		Name  string         `json:"name"`
		Extra map[string]any `json:"extra"`
	}
	first, err := Hash(payload{Name: "x", Extra: map[string]any{"k1": 1, "k2": "v"}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	second, err := Hash(payload{Name: "x", Extra: map[string]any{"k2": "v", "k1": 1}})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if first != second {
		t.Fatalf("first=%s second=%s", first, second)
	}
}

func TestHashIntegralFloatMatchesInt(t *testing.T) {
	a, err := Hash(map[string]any{"n": 3})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	b, err := Hash(map[string]any{"n": 3.0})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if a != b {
		t.Fatalf("a=%s b=%s", a, b)
	}
}

func TestCanonicalizeIDsOrderAndTypeInsensitive(t *testing.T) {
	a := HashIDs([]any{3, 1, 2})
	b := HashIDs([]any{"1", " 2", 3.0})
	if a != b {
		t.Fatalf("a=%s b=%s", a, b)
	}
	c := HashIDs([]any{1, 2})
	if a == c {
		t.Fatalf("expected different hashes")
	}
}

func TestHashFieldsDiffersByOrder(t *testing.T) {
	if HashFields("a", "b") == HashFields("b", "a") {
		t.Fatalf("expected order-sensitive hash")
	}
}
