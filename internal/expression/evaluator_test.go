package expression

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestEvalExpressions(t *testing.T) {
	eval := New()
	env := map[string]any{
		"name":  "Ada",
		"items": []string{"a", "b"},
		"user":  map[string]any{"age": 36},
	}

	cases := map[string]any{
		"1 + 2":              3,
		"name":               "Ada",
		"len(items)":         2,
		"user.age > 30":      true,
		`name + "!"`:         "Ada!",
		"missing":            nil,
		`missing ?? "guest"`: "guest",
		"upper(items[0])":    "A",
	}
	for source, want := range cases {
		got, err := eval.Eval(source, env)
		if err != nil {
			t.Fatalf("Eval(%q): %v", source, err)
		}
		if got != want {
			t.Fatalf("Eval(%q) = %#v, want %#v", source, got, want)
		}
	}
}

func TestEvalCachesPrograms(t *testing.T) {
	eval := New()
	for i := 0; i < 3; i++ {
		if _, err := eval.Eval("a + 1", map[string]any{"a": i}); err != nil {
			t.Fatalf("Eval: %v", err)
		}
	}
	if _, err := eval.Eval("a * 2", nil); err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if eval.Len() != 2 {
		t.Fatalf("expected two cached programs, got %d", eval.Len())
	}
}

func TestEvalErrors(t *testing.T) {
	eval := New()

	_, err := eval.Eval("1 +", nil)
	if err == nil || !strings.HasPrefix(err.Error(), `compile "1 +"`) {
		t.Fatalf("expected compile error, got %v", err)
	}
	if eval.Len() != 0 {
		t.Fatalf("failed programs must not be cached")
	}

	_, err = eval.Eval("items[5]", map[string]any{"items": []int{1}})
	if err == nil || !strings.HasPrefix(err.Error(), `eval "items[5]"`) {
		t.Fatalf("expected eval error, got %v", err)
	}
}

func TestEvalConcurrentUse(t *testing.T) {
	eval := New()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			got, err := eval.Eval("n * 2", map[string]any{"n": n})
			if err != nil {
				errs <- err
				return
			}
			if got != n*2 {
				errs <- fmt.Errorf("n=%d: got %v", n, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	if eval.Len() != 1 {
		t.Fatalf("expected one cached program, got %d", eval.Len())
	}
}
