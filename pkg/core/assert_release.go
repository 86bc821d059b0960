//go:build !debug

package core

// AssertFinite is a no-op outside debug builds
func AssertFinite(Vec3, string) {}
