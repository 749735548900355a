// Package pixel provides the RGB565 color model shared by the panel drivers.
//
// The SPI-attached panels accept pixel data as 16-bit RGB565 words (most
// chips) or 24-bit RGB888 triplets (the AMOLED controller). Color carries a
// full 8-bit-per-channel value so both encodings are available from one
// palette; Image is a packed big-endian RGB565 framebuffer matching the wire
// format, so a full-screen flush is a single copy of Pix.
//
// The 565 encoding truncates the low channel bits. FromRGB565 zero-fills
// them on the way back, so a 888→565→888 round trip does not restore the
// original channels exactly, but re-encoding its result always reproduces
// the same 565 word.
package pixel
