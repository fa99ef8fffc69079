// Package dfu contains the DFU package formats.
//
// It defines the 16-byte init packet (.dat), the JSON manifest and the
// naming rules that tie a firmware binary to both.
package dfu
