// Package nbt writes Named Binary Tag documents. Reading is left to
// github.com/Tnze/go-mc/nbt, which this encoder's output round-trips through.
package nbt

const (
	TagEnd byte = iota
	TagByte
	TagShort
	TagInt
	TagLong
	TagFloat
	TagDouble
	TagByteArray
	TagString
	TagList
	TagCompound
	TagIntArray
	TagLongArray
)
