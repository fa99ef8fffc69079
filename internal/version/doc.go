// Package version exposes build metadata for dfu-packager.
//
// Version, Commit and BuildTime are injected at build time via Go ldflags.
package version
