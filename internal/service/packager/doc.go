// Package packager turns a firmware binary into a DFU archive.
//
// It checksums the binary, writes the init packet and manifest into a freshly
// recreated staging directory, and zips the three files into
// <build>/<stem>_dfu.zip.
package packager
