package meta

import (
	"errors"
	"strings"
	"testing"
)

func generate(t *testing.T, doc string, opts ...Option) string {
	t.Helper()

	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	out, err := Generate(cfg, opts...)
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}

	return out
}

func generateErr(t *testing.T, doc string, opts ...Option) error {
	t.Helper()

	cfg, err := ParseConfig([]byte(doc))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	_, err = Generate(cfg, opts...)
	if err == nil {
		t.Fatal("expected generation to fail")
	}

	return err
}

func TestGenerate_StaticDocument(t *testing.T) {
	doc := `
config: /work/meta.config
keys:
  data: /mnt/data
  input: ${data}/input
classes:
  project:
    class: project
    properties:
      label: demo
  cohort_a:
    class: cohort
    parent: project
    properties:
      table: ${input}/a.tsv
`

	want := `!config /work/meta.config
!key data /mnt/data
!key input /mnt/data/input

project class project
project label demo

cohort_a class cohort
cohort_a parent project
cohort_a table /mnt/data/input/a.tsv
`

	if got := generate(t, doc); got != want {
		t.Errorf("output mismatch:\n got: %q\nwant: %q", got, want)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	doc := `
config: c
keys:
  a: "1"
  b: ${a}2
classes:
  root:
    class: project
templates:
  t:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
    input: [x, y, z]
`

	first := generate(t, doc)
	for range 5 {
		if got := generate(t, doc); got != first {
			t.Fatal("output differs between identical runs")
		}
	}
}

func TestGenerate_ForEachItem(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  samples:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
      properties:
        id: ${item}
        doubled: ${int(item) * 2}
    input: [1, 2]
`

	got := generate(t, doc)

	for _, line := range []string{
		"s_1 class sample",
		"s_1 parent root",
		"s_1 id 1",
		"s_1 doubled 2",
		"s_2 doubled 4",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("missing line %q in output:\n%s", line, got)
		}
	}

	if strings.Index(got, "s_1 class") > strings.Index(got, "s_2 class") {
		t.Error("elements must emit in input order")
	}
}

func TestGenerate_BareItemArithmeticProperty(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  samples:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
      properties:
        doubled: ${item * 2}
    input: [1, 2]
`

	got := generate(t, doc)

	for _, line := range []string{
		"s_1 doubled 2",
		"s_2 doubled 4",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("missing line %q in output:\n%s", line, got)
		}
	}
}

func TestGenerate_ForEachClass(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  samples:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
    subsets: [batch1]
    input: [a, b]
  aligns:
    operation: for_each_class
    class: align
    prefix: bwa
    pattern:
      name: ${prefix}_${item}
      parent: root
      properties:
        sample: ${item}
    input:
      class_name: sample
`

	got := generate(t, doc)

	for _, line := range []string{
		"bwa_s_a class align",
		"bwa_s_a sample s_a",
		"bwa_s_b class align",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("missing line %q in output:\n%s", line, got)
		}
	}
}

func TestGenerate_ForEachClassIfSubset(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  group_a:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: a_${item}
    subsets: [keep]
    input: [1]
  group_b:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: b_${item}
    input: [1]
  picked:
    operation: for_each_class
    class: pick
    pattern:
      name: pick_${item}
      parent: root
    input:
      class_name: sample
      if_subset: [keep]
`

	got := generate(t, doc)

	if !strings.Contains(got, "pick_a_1 class pick\n") {
		t.Errorf("subset member not selected:\n%s", got)
	}

	if strings.Contains(got, "pick_b_1") {
		t.Errorf("non-member selected despite if_subset:\n%s", got)
	}
}

func TestGenerate_Combination(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  grid:
    operation: iter.combination
    class: run
    parent: root
    pattern:
      name: r_${item:tissue}_${item:rep}
      properties:
        tissue: ${item:tissue}
    input:
      - name: tissue
        values: [liver, brain]
      - name: rep
        values: [1, 2]
`

	got := generate(t, doc)

	order := []string{
		"r_liver_1 class run",
		"r_liver_2 class run",
		"r_brain_1 class run",
		"r_brain_2 class run",
	}

	last := -1
	for _, line := range order {
		idx := strings.Index(got, line)
		if idx < 0 {
			t.Fatalf("missing line %q in output:\n%s", line, got)
		}

		if idx < last {
			t.Errorf("line %q out of order; last dimension must vary fastest", line)
		}

		last = idx
	}

	if !strings.Contains(got, "r_brain_2 tissue brain\n") {
		t.Errorf("dimension reference not substituted in property:\n%s", got)
	}
}

func TestGenerate_CombinationClassDimensionAndParentTemplate(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  samples:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
    input: [a, b]
  pairs:
    operation: iter.combination
    class: pair
    parent: ${item:sample}
    pattern:
      name: p_${item:sample}_${item:rep}
    input:
      - name: sample
        class_name: sample
      - name: rep
        values: [1]
`

	got := generate(t, doc)

	if !strings.Contains(got, "p_s_a_1 parent s_a\n") {
		t.Errorf("parent template not rendered per element:\n%s", got)
	}

	if !strings.Contains(got, "p_s_b_1 parent s_b\n") {
		t.Errorf("second class member missing:\n%s", got)
	}
}

func TestGenerate_CombinationRangeDimension(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  sweeps:
    operation: iter.combination
    class: sweep
    parent: root
    pattern:
      name: w_${item:threshold}
    input:
      - name: threshold
        operation: range
        start: 0.5
        end: 1.5
        inc: 0.5
`

	got := generate(t, doc)

	for _, name := range []string{"w_0.5", "w_1", "w_1.5"} {
		if !strings.Contains(got, name+" class sweep\n") {
			t.Errorf("missing range point %q:\n%s", name, got)
		}
	}
}

func TestGenerate_RangeOperation(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  chunks:
    operation: range
    class: chunk
    parent: root
    pattern:
      name: chunk_${item}
      properties:
        index: ${item}
    input:
      start: 1
      end: 3
      inc: 1
`

	got := generate(t, doc)

	for _, line := range []string{
		"chunk_1 index 1",
		"chunk_2 index 2",
		"chunk_3 index 3",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("missing line %q:\n%s", line, got)
		}
	}
}

func TestGenerate_IgnoreClassCascades(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  samples:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: ${item}
    input: [liver_control, liver_case]
  aligns:
    operation: for_each_class
    class: align
    pattern:
      name: align_${item}
      parent: root
    input:
      class_name: sample
`

	got := generate(t, doc, WithIgnoreClass("sample:.*control.*"))

	if strings.Contains(got, "liver_control") {
		t.Errorf("ignored instance leaked into output:\n%s", got)
	}

	if !strings.Contains(got, "align_liver_case class align\n") {
		t.Errorf("surviving instance should still fan out:\n%s", got)
	}
}

func TestGenerate_DuplicateMergeKeepsBlockContiguous(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  first:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
      properties:
        a: "1"
    input: [x]
  unrelated:
    operation: for_each_item
    class: other
    parent: root
    pattern:
      name: o_${item}
    input: [y]
  second:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
      properties:
        b: "2"
    input: [x]
`

	got := generate(t, doc)

	if strings.Count(got, "s_x class sample") != 1 {
		t.Errorf("re-emitted name must not produce a second header:\n%s", got)
	}

	// The late property lands inside the original block, before the
	// unrelated instance that was emitted in between.
	bIdx := strings.Index(got, "s_x b 2")
	oIdx := strings.Index(got, "o_y class other")

	if bIdx < 0 || oIdx < 0 {
		t.Fatalf("expected merged property and unrelated block:\n%s", got)
	}

	if bIdx > oIdx {
		t.Errorf("merged directive must stay contiguous with its block:\n%s", got)
	}
}

func TestGenerate_DuplicateDifferingPropertyKeepsFirst(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  first:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s
      properties:
        a: "1"
    input: [x]
  second:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s
      properties:
        a: "2"
    input: [x]
`

	got := generate(t, doc)

	// Both lines persist in the stream; the earlier one stays first.
	aOne := strings.Index(got, "s a 1")
	aTwo := strings.Index(got, "s a 2")

	if aOne < 0 || aTwo < 0 {
		t.Fatalf("both property lines should be present:\n%s", got)
	}

	if aOne > aTwo {
		t.Errorf("first-seen value must precede the conflicting one:\n%s", got)
	}
}

func TestGenerate_SubsetDuplicatesPreserved(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  first:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
    subsets: [all]
    input: [x]
  second:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
    subsets: [all]
    input: [x]
  fanout:
    operation: for_each_class
    class: job
    pattern:
      name: job${item}
      parent: root
    input:
      class_name: sample
      if_subset: [all]
`

	got := generate(t, doc)

	if n := strings.Count(got, "jobs_x class job"); n != 1 {
		t.Errorf("expected one merged job block, got %d:\n%s", n, got)
	}

	dedup := generate(t, doc, WithDedupeSubsets())
	if n := strings.Count(dedup, "jobs_x class job"); n != 1 {
		t.Errorf("dedupe run should also have one block, got %d:\n%s", n, dedup)
	}
}

func TestGenerate_ClassConflict(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
templates:
  first:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: thing
    input: [x]
  second:
    operation: for_each_item
    class: cohort
    parent: root
    pattern:
      name: thing
    input: [x]
`

	err := generateErr(t, doc)
	if !errors.Is(err, ErrClassConflict) {
		t.Fatalf("expected ErrClassConflict, got %v", err)
	}

	if !strings.Contains(err.Error(), "template 'second'") {
		t.Errorf("error should name the failing template: %v", err)
	}
}

func TestGenerate_MissingConfigDirective(t *testing.T) {
	err := generateErr(t, `
classes:
  root:
    class: project
`)
	if !errors.Is(err, ErrConfigShape) {
		t.Fatalf("expected ErrConfigShape, got %v", err)
	}

	if !strings.Contains(err.Error(), "'config'") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestGenerate_MultipleRoots(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  one:
    class: project
  two:
    class: project
`)
	if !errors.Is(err, ErrDuplicateRoot) {
		t.Fatalf("expected ErrDuplicateRoot, got %v", err)
	}
}

func TestGenerate_EmptyParentList(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
  orphan:
    class: cohort
    parent: []
`)
	if !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}

func TestGenerate_ConflictingParentSpec(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
templates:
  bad:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
      parent: root
    input: [x]
`)
	if !errors.Is(err, ErrConflictingParentSpec) {
		t.Fatalf("expected ErrConflictingParentSpec, got %v", err)
	}

	if !strings.Contains(err.Error(), "pattern.parent") {
		t.Errorf("error should describe both declaration sites: %v", err)
	}
}

func TestGenerate_UnsupportedOperation(t *testing.T) {
	err := generateErr(t, `
config: c
templates:
  bad:
    operation: foreach
    class: sample
    pattern:
      name: s
    input: [x]
`)
	if !errors.Is(err, ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}

	if !strings.Contains(err.Error(), "suggestion=for_each_item") {
		t.Errorf("near-miss should suggest the real operation: %v", err)
	}
}

func TestGenerate_MissingInput(t *testing.T) {
	err := generateErr(t, `
config: c
templates:
  bad:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
`)
	if !errors.Is(err, ErrConfigShape) {
		t.Fatalf("expected ErrConfigShape, got %v", err)
	}

	if !strings.Contains(err.Error(), "'input'") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestGenerate_InputMustBeList(t *testing.T) {
	err := generateErr(t, `
config: c
templates:
  bad:
    operation: for_each_item
    class: sample
    pattern:
      name: s_${item}
    input:
      not: a-list
`)
	if !errors.Is(err, ErrConfigShape) {
		t.Fatalf("expected ErrConfigShape, got %v", err)
	}

	if !strings.Contains(err.Error(), "must be a list") {
		t.Errorf("error should describe the shape: %v", err)
	}
}

func TestGenerate_MissingClassName(t *testing.T) {
	err := generateErr(t, `
config: c
templates:
  bad:
    operation: for_each_class
    class: align
    pattern:
      name: a_${item}
      parent: root
    input:
      if_subset: [all]
`)
	if !errors.Is(err, ErrConfigShape) {
		t.Fatalf("expected ErrConfigShape, got %v", err)
	}

	if !strings.Contains(err.Error(), "class_name") {
		t.Errorf("error should name the missing field: %v", err)
	}
}

func TestGenerate_CombinationEmptyInput(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
templates:
  bad:
    operation: iter.combination
    class: run
    parent: root
    pattern:
      name: r
    input: []
`)
	if !errors.Is(err, ErrConfigShape) {
		t.Fatalf("expected ErrConfigShape, got %v", err)
	}

	if !strings.Contains(err.Error(), "empty 'input' list") {
		t.Errorf("error should flag the empty list: %v", err)
	}
}

func TestGenerate_CombinationMissingParent(t *testing.T) {
	err := generateErr(t, `
config: c
templates:
  bad:
    operation: iter.combination
    class: run
    pattern:
      name: r_${item:a}
    input:
      - name: a
        values: [1]
`)
	if !errors.Is(err, ErrMissingParent) {
		t.Fatalf("expected ErrMissingParent, got %v", err)
	}
}

func TestGenerate_CombinationSpecMissingName(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
templates:
  bad:
    operation: iter.combination
    class: run
    parent: root
    pattern:
      name: r
    input:
      - values: [1]
`)
	if !errors.Is(err, ErrConfigShape) {
		t.Fatalf("expected ErrConfigShape, got %v", err)
	}

	if !strings.Contains(err.Error(), "missing 'name' field") {
		t.Errorf("error should name the field: %v", err)
	}
}

func TestGenerate_UnknownItemReferenceNamesTemplate(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
templates:
  grid:
    operation: iter.combination
    class: run
    parent: root
    pattern:
      name: r_${item:missing}
    input:
      - name: present
        values: [1]
`)
	if !errors.Is(err, ErrUnknownItemReference) {
		t.Fatalf("expected ErrUnknownItemReference, got %v", err)
	}

	if !strings.Contains(err.Error(), "template 'grid'") {
		t.Errorf("error should carry the template name: %v", err)
	}
}

func TestGenerate_PropertyErrorCarriesContext(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
templates:
  t:
    operation: for_each_item
    class: sample
    parent: root
    pattern:
      name: s_${item}
      properties:
        bad_prop: ${int(item) +}
    input: [x]
`)
	if !errors.Is(err, ErrExpression) {
		t.Fatalf("expected ErrExpression, got %v", err)
	}

	if !strings.Contains(err.Error(), "bad_prop") {
		t.Errorf("error should name the property: %v", err)
	}

	if !strings.Contains(err.Error(), "template 't'") {
		t.Errorf("error should name the template: %v", err)
	}
}

func TestGenerate_UndefinedKeyInProperty(t *testing.T) {
	err := generateErr(t, `
config: c
classes:
  root:
    class: project
    properties:
      path: ${nowhere}/x
`)
	if !errors.Is(err, ErrUndefinedKey) {
		t.Fatalf("expected ErrUndefinedKey, got %v", err)
	}
}

func TestGenerate_NonStringPropertyLiterals(t *testing.T) {
	doc := `
config: c
classes:
  root:
    class: project
    properties:
      enabled: true
      missing: null
      ratio: 5.0
`

	got := generate(t, doc)

	for _, line := range []string{
		"root enabled true",
		"root missing null",
		"root ratio 5",
	} {
		if !strings.Contains(got, line+"\n") {
			t.Errorf("missing line %q:\n%s", line, got)
		}
	}
}
