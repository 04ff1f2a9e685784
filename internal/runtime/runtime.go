// Package runtime declares the contract between emitted IR and the
// (external, C++) game runtime it links against: spec.md §1/§6 treat the
// runtime as an out-of-scope collaborator, but its primitive set is fixed
// by original_source/runtime/libtestergame.cpp and must be named here so
// internal/interp's test harness and any future real codegen backend agree
// on signatures.
package runtime

// ParamKind is the type of one extern primitive's parameter or result.
type ParamKind int

const (
	KindVoid ParamKind = iota
	KindInt
	KindBool
	KindFloat
	KindString
	KindHandle // an opaque void* (sound/image handle)
)

// Primitive describes one extern function the runtime exposes to emitted
// code, named exactly as libtestergame.cpp declares it.
type Primitive struct {
	Name   string
	Params []ParamKind
	Result ParamKind
}

// Meta is the declarative table of every runtime primitive (teacher's
// builtins.Meta registration-table pattern, repurposed to this language's
// much smaller, fixed primitive set instead of a general stdlib).
var Meta = []Primitive{
	{Name: "print", Params: []ParamKind{KindInt}, Result: KindVoid},
	{Name: "printb", Params: []ParamKind{KindBool}, Result: KindVoid},
	{Name: "print_float", Params: []ParamKind{KindFloat}, Result: KindVoid},
	{Name: "printstr", Params: []ParamKind{KindString}, Result: KindVoid},
	{Name: "load_sound", Params: []ParamKind{KindString}, Result: KindHandle},
	{Name: "play_sound", Params: []ParamKind{KindHandle}, Result: KindVoid},
	{Name: "loop_sound", Params: []ParamKind{KindHandle}, Result: KindVoid},
	{Name: "load_image", Params: []ParamKind{KindString}, Result: KindHandle},
	{Name: "set_sprite_position", Params: []ParamKind{KindHandle, KindFloat, KindFloat}, Result: KindVoid},
	{Name: "draw_sprite", Params: []ParamKind{KindHandle}, Result: KindVoid},
	{Name: "end_game", Params: nil, Result: KindVoid},
	{Name: "key_pressed", Params: []ParamKind{KindInt}, Result: KindBool},
}

// EntryPoints are the three functions emitted code must export for the
// runtime's main loop to call (spec.md §4.3 "global dispatch loops").
var EntryPoints = []string{"global_create", "global_step", "global_draw"}

// MaxSteps bounds the host driver loop exactly as libtestergame.cpp does,
// so a program that never calls end_game fails the same way in tests that
// it would under the real runtime.
const MaxSteps = 1000

// ByName looks up a primitive's signature by name.
func ByName(name string) (Primitive, bool) {
	for _, p := range Meta {
		if p.Name == name {
			return p, true
		}
	}
	return Primitive{}, false
}
