package meta

import (
	"errors"
	"strings"
	"testing"
)

func table(kvs ...KeyValue) *keyTable {
	return newKeyTable(kvs)
}

func TestKeyResolve_Simple(t *testing.T) {
	kt := table(KeyValue{Name: "data", Value: "/mnt/data"})

	got, err := kt.Resolve("${data}/input.tsv")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if got != "/mnt/data/input.tsv" {
		t.Errorf("expected /mnt/data/input.tsv, got %q", got)
	}
}

func TestKeyResolve_Nested(t *testing.T) {
	kt := table(
		KeyValue{Name: "root", Value: "/srv"},
		KeyValue{Name: "data", Value: "${root}/data"},
		KeyValue{Name: "input", Value: "${data}/input"},
	)

	got, err := kt.Resolve("${input}")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if got != "/srv/data/input" {
		t.Errorf("expected /srv/data/input, got %q", got)
	}
}

func TestKeyResolve_ForwardReference(t *testing.T) {
	// Declaration order does not constrain reference order.
	kt := table(
		KeyValue{Name: "data", Value: "${root}/data"},
		KeyValue{Name: "root", Value: "/srv"},
	)

	got, err := kt.Resolve("${data}")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if got != "/srv/data" {
		t.Errorf("expected /srv/data, got %q", got)
	}
}

func TestKeyResolve_NonStringValue(t *testing.T) {
	kt := table(KeyValue{Name: "count", Value: 5})

	got, err := kt.Resolve("n=${count}")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if got != "n=5" {
		t.Errorf("expected n=5, got %q", got)
	}
}

func TestKeyResolve_Undefined(t *testing.T) {
	kt := table(KeyValue{Name: "data", Value: "/mnt/data"})

	_, err := kt.Resolve("${dat}")
	if !errors.Is(err, ErrUndefinedKey) {
		t.Fatalf("expected ErrUndefinedKey, got %v", err)
	}

	if !strings.Contains(err.Error(), "key=dat") {
		t.Errorf("error should name the missing key: %v", err)
	}

	// Near-miss names get a suggestion.
	if !strings.Contains(err.Error(), "suggestion=data") {
		t.Errorf("error should suggest a close match: %v", err)
	}
}

func TestKeyResolve_Cycle(t *testing.T) {
	kt := table(
		KeyValue{Name: "a", Value: "${b}"},
		KeyValue{Name: "b", Value: "${a}"},
	)

	_, err := kt.Resolve("${a}")
	if !errors.Is(err, ErrKeyCycle) {
		t.Fatalf("expected ErrKeyCycle, got %v", err)
	}
}

func TestKeyResolve_SelfCycle(t *testing.T) {
	kt := table(KeyValue{Name: "a", Value: "pre-${a}"})

	_, err := kt.Resolve("${a}")
	if !errors.Is(err, ErrKeyCycle) {
		t.Fatalf("expected ErrKeyCycle, got %v", err)
	}
}

func TestKeyResolve_NoTokens(t *testing.T) {
	kt := table()

	got, err := kt.Resolve("verbatim text")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if got != "verbatim text" {
		t.Errorf("expected pass-through, got %q", got)
	}
}

func TestKeyResolve_ExpressionSpanUntouched(t *testing.T) {
	// Spans that are not bare \w+ names are not key references.
	kt := table(KeyValue{Name: "item", Value: "SHOULD NOT APPEAR"})

	got, err := kt.Resolve("${item + 1}")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	if got != "${item + 1}" {
		t.Errorf("expected expression span untouched, got %q", got)
	}
}
