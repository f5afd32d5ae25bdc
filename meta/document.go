package meta

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/yakaboskic/meta-sanity/log"
)

// Instance is the live registry entry for one generated or static name.
type Instance struct {
	Name    string
	Class   string
	Parents []string
	// properties records the first value written per key; later identical
	// writes dedupe against it.
	properties map[string]string
	subsets    map[string]struct{}
}

// document is the ordered in-memory representation of every generated
// instance plus the textual line buffer. A side table of per-instance
// insertion cursors keeps a re-visited instance's new directives contiguous
// with its original block even though the buffer is otherwise append-only.
type document struct {
	lines     []string
	instances map[string]*Instance
	order     []string
	cursors   map[string]int
	subsets   map[string][]string
	dedupe    bool
}

func newDocument(dedupe bool) *document {
	return &document{
		instances: make(map[string]*Instance),
		cursors:   make(map[string]int),
		subsets:   make(map[string][]string),
		dedupe:    dedupe,
	}
}

// open registers (or re-opens) the instance name under class. For an unseen
// name it appends a blank line and the class header and reports
// revisit=false; the caller must seal the block once its directives are
// written. A seen name with a matching class is a legitimate re-visit whose
// new directives will be inserted at the tracked cursor. A seen name with a
// different class is a hard error for every operation.
func (d *document) open(name, class string) (revisit bool, err error) {
	if inst, ok := d.instances[name]; ok {
		if inst.Class != class {
			return false, ErrClassConflict.
				With(slog.String("instance", name),
					slog.String("class", inst.Class),
					slog.String("conflicting", class))
		}

		return true, nil
	}

	d.lines = append(d.lines, "", name+" class "+class)
	d.instances[name] = &Instance{
		Name:       name,
		Class:      class,
		properties: make(map[string]string),
		subsets:    make(map[string]struct{}),
	}
	d.order = append(d.order, name)

	return false, nil
}

// seal records the insertion cursor for a freshly written block: the buffer
// index immediately after the instance's last emitted line.
func (d *document) seal(name string) {
	d.cursors[name] = len(d.lines)
}

// insertAt places line at the instance's cursor, keeping its block
// contiguous, and advances the cursor past the insertion. All cursors at
// or beyond the insertion point shift with the buffer.
func (d *document) insertAt(name, line string) {
	at := d.cursors[name]
	d.lines = slices.Insert(d.lines, at, line)

	for other, cur := range d.cursors {
		if cur >= at && other != name {
			d.cursors[other] = cur + 1
		}
	}

	d.cursors[name] = at + 1
}

// parent records a parent edge and emits its directive line. Re-asserting
// a parent the instance already has is a silent no-op, mirroring the
// idempotent property rule.
func (d *document) parent(name, parent string, revisit bool) {
	inst := d.instances[name]
	if slices.Contains(inst.Parents, parent) {
		return
	}

	inst.Parents = append(inst.Parents, parent)

	line := name + " parent " + parent
	if revisit {
		d.insertAt(name, line)
	} else {
		d.lines = append(d.lines, line)
	}
}

// property records a property directive. On re-visit, an identical value
// for an existing key is skipped silently; a differing value is inserted
// anyway (both lines persist in output) with a diagnostic warning, and the
// registry keeps the first value.
func (d *document) property(name, key, value string, revisit bool) {
	inst := d.instances[name]
	line := name + " " + key + " " + value

	if !revisit {
		if _, ok := inst.properties[key]; !ok {
			inst.properties[key] = value
		}

		d.lines = append(d.lines, line)

		return
	}

	if prev, ok := inst.properties[key]; ok {
		if prev == value {
			return
		}

		log.Warn("duplicate property with differing value",
			slog.String("instance", name),
			slog.String("property", key),
			slog.String("existing", prev),
			slog.String("value", value),
		)

		d.insertAt(name, line)

		return
	}

	inst.properties[key] = value
	d.insertAt(name, line)
}

// tag appends the instance to each subset. Membership lists are
// append-only and, unless dedupe is enabled, may list a name more than
// once when templates re-tag it.
func (d *document) tag(name string, subsets []string) {
	inst := d.instances[name]

	for _, subset := range subsets {
		if d.dedupe {
			if _, member := inst.subsets[subset]; member {
				continue
			}
		}

		inst.subsets[subset] = struct{}{}
		d.subsets[subset] = append(d.subsets[subset], name)
	}
}

// membersOf returns the union of the named subsets in first-registration
// order. Duplicates are preserved unless dedupe is enabled.
func (d *document) membersOf(subsets []string) []string {
	var members []string

	seen := make(map[string]struct{})

	for _, subset := range subsets {
		for _, name := range d.subsets[subset] {
			if d.dedupe {
				if _, dup := seen[name]; dup {
					continue
				}

				seen[name] = struct{}{}
			}

			members = append(members, name)
		}
	}

	return members
}

// instancesOfClass returns every registered instance with the given class
// tag, in registry order.
func (d *document) instancesOfClass(class string) []string {
	var names []string

	for _, name := range d.order {
		if d.instances[name].Class == class {
			names = append(names, name)
		}
	}

	return names
}

// render joins the buffer into the final block section of the document.
func (d *document) render() string {
	return strings.Join(d.lines, "\n")
}
