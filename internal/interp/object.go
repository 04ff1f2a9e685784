package interp

import "vellum/internal/ir"

// newObject allocates o of the named type, assigns it the next monotonic
// id, and links it into both intrusive lists: the per-type list used by
// ForEach/vtable dispatch and the general list reserved for whole-program
// walks (spec.md §4.3 "two intrusive doubly-linked lists").
func (ip *Interp) newObject(typeName string, args []Value) Value {
	layout, ok := ip.layouts[typeName]
	if !ok {
		return Value{}
	}
	o := &object{
		id:       ip.nextID,
		typeName: typeName,
		fields:   make(map[string]Value),
	}
	ip.nextID++

	for cur := layout; cur != nil; cur = ip.parentLayout(cur) {
		for _, f := range cur.OwnFields {
			if _, exists := o.fields[f.Name]; !exists {
				o.fields[f.Name] = zeroValue(f.Type)
			}
		}
	}

	ip.general.pushGeneral(o)
	tl, ok := ip.byType[typeName]
	if !ok {
		tl = newList()
		ip.byType[typeName] = tl
	}
	tl.pushType(o)

	if layout.CreateFunc != "" {
		ip.callNamed(layout.CreateFunc, append([]Value{{Kind: KindObject, Obj: o}}, args...))
	}
	return Value{Kind: KindObject, Obj: o}
}

func (ip *Interp) parentLayout(l *ir.ObjectLayout) *ir.ObjectLayout {
	if l.Parent == "" {
		return nil
	}
	return ip.layouts[l.Parent]
}

// destroy runs o's destroy event through the vtable, then marks it dead.
// The destroy event's post-work unlinks o from its type list and cascades
// into each ancestor's own destroy event in turn (spec.md §4.3 "destroy
// event post-work"); the general list is left untouched — lazy destruction
// only ever applies there, reclaimed on the next global_step/global_draw
// pass that observes the zeroed id (spec.md §4.3 "destroy expression").
func (ip *Interp) destroy(o *object) {
	if o.id == 0 {
		return
	}
	ip.runDestroyChain(o)
	o.id = 0
}

// runDestroyChain invokes o's nearest-override destroy handler, then walks
// upward through ancestor layouts invoking each next DISTINCT declared
// destroy handler in turn (a level that inherits rather than overrides
// resolves to the same function already run, and is skipped), unlinking o
// from its type list once along the way.
func (ip *Interp) runDestroyChain(o *object) {
	unlinkType(o)
	last := ""
	for layout := ip.layouts[o.typeName]; layout != nil; layout = ip.parentLayout(layout) {
		fn := vtableFunc(layout, "destroy")
		if fn != "" && fn != last {
			ip.callNamed(fn, []Value{{Kind: KindObject, Obj: o}})
			last = fn
		}
	}
}

func vtableFunc(layout *ir.ObjectLayout, slot string) string {
	for _, e := range layout.VTable {
		if e.Slot == slot {
			return e.Func
		}
	}
	return ""
}

// forEachType iterates typeName's intrusive list from the head, which is
// newest-first since pushType front-inserts, capturing each node's next pointer before running body so that body may
// destroy the current node without corrupting iteration (a destroyed node
// unlinks itself from this very list synchronously, inside destroy's
// post-work, so the id==0 guard here only defends against a node another
// concurrent cursor destroyed after this one already captured it).
func (ip *Interp) forEachType(typeName string, body func(o *object)) {
	tl, ok := ip.byType[typeName]
	if !ok {
		return
	}
	cur := tl.sentinel.typeNext
	for cur != tl.sentinel {
		next := cur.typeNext
		if cur.id != 0 {
			body(cur)
		}
		cur = next
	}
}

// sweepGeneral reclaims every general-list node whose id has gone to zero:
// the general list is the one structure lazy destruction really defers
// (spec.md §4.3 "without unlinking anything from the general list"), freed
// only once a global_step/global_draw pass observes it.
func (ip *Interp) sweepGeneral() {
	cur := ip.general.sentinel.genNext
	for cur != ip.general.sentinel {
		next := cur.genNext
		if cur.id == 0 {
			unlinkGeneral(cur)
		}
		cur = next
	}
}

func zeroValue(typeName string) Value {
	switch typeName {
	case "int":
		return Value{Kind: KindInt}
	case "float":
		return Value{Kind: KindFloat}
	case "bool":
		return Value{Kind: KindBool}
	case "string":
		return Value{Kind: KindString}
	default:
		return Value{Kind: KindObject}
	}
}

