package factorial

import (
	"bytes"
	"strings"
	"testing"
)

func TestFactorialBaseCases(t *testing.T) {
	for _, n := range []int64{0, 1} {
		var c Collector
		if got := Factorial(n, &c); got != 1 {
			t.Errorf("Factorial(%d) = %d, expected 1", n, got)
		}
		if len(c.Values) != 0 {
			t.Errorf("Factorial(%d) printed %v, expected nothing", n, c.Values)
		}
	}
}

func TestFactorialRecurrence(t *testing.T) {
	for n := int64(2); n <= 20; n++ {
		if got, want := Factorial(n, nil), n*Factorial(n-1, nil); got != want {
			t.Errorf("Factorial(%d) = %d, expected %d", n, got, want)
		}
	}
}

func TestRun(t *testing.T) {
	var c Collector
	if got := Run(&c); got != 479001600 {
		t.Fatalf("Run() = %d, expected 479001600", got)
	}

	expected := []int64{2, 6, 24, 120, 720, 5040, 40320, 362880, 3628800, 39916800, 479001600}
	if len(c.Values) != len(expected) {
		t.Fatalf("Expected %d intermediates, got %d: %v", len(expected), len(c.Values), c.Values)
	}
	for i := range expected {
		if c.Values[i] != expected[i] {
			t.Errorf("Intermediate %d = %d, expected %d", i, c.Values[i], expected[i])
		}
	}
}

func TestWriterPrinter(t *testing.T) {
	var buf bytes.Buffer
	Run(NewPrinter(&buf))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 11 {
		t.Fatalf("Expected 11 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "2" || lines[10] != "479001600" {
		t.Errorf("Unexpected first/last line: %q / %q", lines[0], lines[10])
	}
}

func TestTee(t *testing.T) {
	var a, b Collector
	var buf bytes.Buffer
	Factorial(4, Tee(&a, nil, &b, NewPrinter(&buf)))

	if len(a.Values) != 3 || len(b.Values) != 3 {
		t.Fatalf("Expected both collectors to see 3 values, got %v and %v", a.Values, b.Values)
	}
	if buf.String() != "2\n6\n24\n" {
		t.Errorf("Unexpected writer output %q", buf.String())
	}
}
