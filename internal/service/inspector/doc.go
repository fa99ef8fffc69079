// Package inspector verifies DFU archives produced by the packager.
package inspector
