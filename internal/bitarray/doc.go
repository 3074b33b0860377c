// Package bitarray implements the binary segment encoder used to fold
// literal bit arrays at generation time.
//
// Bits are packed MSB-first: bit 0 of a BitArray is the high bit of Data[0].
// Multi-byte integers are big-endian unless a segment asks for little.
//
// Разбор bit array во время выполнения живёт в prelude, не здесь.
package bitarray
