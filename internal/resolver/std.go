package resolver

import (
	_ "embed"

	"fmt"
)

//go:embed stdlib/std.vl
var stdSource []byte

// LoadStd parses the embedded standard namespace source and registers it in
// w.Files under the "std.vl" key that withStd's injected FileRef targets.
func LoadStd(w *World, parse FileParser) error {
	ns, err := parse("std.vl", stdSource)
	if err != nil {
		return fmt.Errorf("parse embedded std.vl: %w", err)
	}
	w.Files["std.vl"] = ns
	return nil
}
