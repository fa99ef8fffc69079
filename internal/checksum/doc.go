// Package checksum computes the CRC-32 of firmware images in bounded chunks.
package checksum
