package interp

import "fmt"

// callHost implements the runtime.Meta primitive table (grounded on
// original_source/runtime/libtestergame.cpp): the print family writes to
// the interpreter's stdout; end_game stops the Run loop; key_pressed
// answers from the test-injectable KeysDown map; the sound/image
// primitives have no real backend under a test harness, so they return
// placeholder handles and otherwise do nothing. handled is false for any
// name that isn't a runtime primitive, so evalCall falls back to a
// namespace-function lookup.
func (ip *Interp) callHost(name string, args []Value) (Value, bool) {
	switch name {
	case "print":
		fmt.Fprintf(ip.out, "%d\n", arg(args, 0).Int)
		return Value{}, true
	case "printb":
		fmt.Fprintf(ip.out, "%t\n", arg(args, 0).Bool)
		return Value{}, true
	case "print_float":
		fmt.Fprintf(ip.out, "%g\n", arg(args, 0).Float)
		return Value{}, true
	case "printstr":
		fmt.Fprintf(ip.out, "%s\n", arg(args, 0).Str)
		return Value{}, true
	case "end_game":
		ip.ended = true
		return Value{}, true
	case "key_pressed":
		code := int(arg(args, 0).Int)
		return Value{Kind: KindBool, Bool: ip.KeysDown[code]}, true
	case "load_sound", "load_image":
		return Value{Kind: KindInt, Int: ip.nextHandle()}, true
	case "play_sound", "loop_sound", "draw_sprite":
		return Value{}, true
	case "set_sprite_position":
		return Value{}, true
	default:
		return Value{}, false
	}
}

func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return Value{}
}

// nextHandle hands out an opaque, strictly increasing handle id distinct
// from object ids, since a test harness has no real sound/image device to
// back it with.
func (ip *Interp) nextHandle() int64 {
	ip.handleSeq++
	return ip.handleSeq
}
