//go:build debug

package core

import "fmt"

// AssertFinite panics when a shaded color carries NaN. Only built with -tags debug.
func AssertFinite(color Vec3, where string) {
	if color.IsNaN() {
		panic(fmt.Sprintf("NaN color %v produced by %s", color, where))
	}
}
