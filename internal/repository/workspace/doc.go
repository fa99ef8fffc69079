// Package workspace provides the staging directory used while a DFU package
// is assembled.
//
// Directory clears and recreates the tree, writes generated files and copies
// the firmware binary, all through direct filesystem calls.
package workspace
