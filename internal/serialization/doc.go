// Package serialization implements the .qvr binary format for model
// parameters and checkpoints.
//
// File layout:
//
//	[4 bytes]  magic "QVRF"
//	[4 bytes]  format version (uint32, little-endian)
//	[4 bytes]  flags (uint32, little-endian)
//	[8 bytes]  header size (uint64, little-endian)
//	[N bytes]  JSON header (Header)
//	[padding]  zero bytes up to 64-byte alignment
//	[...]      raw tensor data, in header order
//
// The JSON header carries per-tensor metadata (name, dtype, shape, offset,
// size) plus optional checkpoint metadata. Tensor data is stored in native
// little-endian layout and read back without conversion.
package serialization
