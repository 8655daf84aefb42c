package nbt

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
)

var ErrUnsupported = errors.New("nbt: unsupported type")

func Marshal(w io.Writer, v interface{}) error {
	return NewEncoder(w).Encode(v)
}

type Encoder struct {
	w   io.Writer
	buf [8]byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes v as an unnamed root tag. Structs use the `nbt` field tag for
// names and skip fields tagged "-"; maps must have string keys and are written
// in key order.
func (e *Encoder) Encode(v interface{}) error {
	return e.named(reflect.ValueOf(v), "")
}

func (e *Encoder) named(val reflect.Value, name string) error {
	if val.Kind() == reflect.Interface || val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return fmt.Errorf("%w: nil value for %q", ErrUnsupported, name)
		}
		return e.named(val.Elem(), name)
	}
	tag, err := tagOf(val.Type())
	if err != nil {
		return fmt.Errorf("%w (field %q)", err, name)
	}
	if err := e.header(tag, name); err != nil {
		return err
	}
	return e.payload(val, tag)
}

func tagOf(t reflect.Type) (byte, error) {
	switch t.Kind() {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return TagByte, nil
	case reflect.Int16, reflect.Uint16:
		return TagShort, nil
	case reflect.Int32, reflect.Uint32:
		return TagInt, nil
	case reflect.Int64, reflect.Uint64:
		return TagLong, nil
	case reflect.Float32:
		return TagFloat, nil
	case reflect.Float64:
		return TagDouble, nil
	case reflect.String:
		return TagString, nil
	case reflect.Struct:
		return TagCompound, nil
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return 0, fmt.Errorf("%w: map key %s", ErrUnsupported, t.Key())
		}
		return TagCompound, nil
	case reflect.Ptr:
		return tagOf(t.Elem())
	case reflect.Slice, reflect.Array:
		switch t.Elem().Kind() {
		case reflect.Uint8, reflect.Int8:
			return TagByteArray, nil
		case reflect.Int32:
			return TagIntArray, nil
		case reflect.Int64:
			return TagLongArray, nil
		}
		return TagList, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupported, t)
}

func (e *Encoder) payload(val reflect.Value, tag byte) error {
	switch tag {
	case TagByte:
		if val.Kind() == reflect.Bool {
			if val.Bool() {
				return e.u8(1)
			}
			return e.u8(0)
		}
		return e.u8(byte(integer(val)))
	case TagShort:
		return e.u16(uint16(integer(val)))
	case TagInt:
		return e.u32(uint32(integer(val)))
	case TagLong:
		return e.u64(uint64(integer(val)))
	case TagFloat:
		return e.u32(math.Float32bits(float32(val.Float())))
	case TagDouble:
		return e.u64(math.Float64bits(val.Float()))
	case TagString:
		return e.str(val.String())
	case TagCompound:
		if val.Kind() == reflect.Map {
			return e.compoundMap(val)
		}
		return e.compoundStruct(val)
	case TagByteArray:
		if err := e.u32(uint32(val.Len())); err != nil {
			return err
		}
		for i := 0; i < val.Len(); i++ {
			if err := e.u8(byte(integer(val.Index(i)))); err != nil {
				return err
			}
		}
		return nil
	case TagIntArray, TagLongArray:
		if err := e.u32(uint32(val.Len())); err != nil {
			return err
		}
		for i := 0; i < val.Len(); i++ {
			var err error
			if tag == TagIntArray {
				err = e.u32(uint32(val.Index(i).Int()))
			} else {
				err = e.u64(uint64(val.Index(i).Int()))
			}
			if err != nil {
				return err
			}
		}
		return nil
	case TagList:
		return e.list(val)
	}
	return fmt.Errorf("%w: tag %d", ErrUnsupported, tag)
}

// list writes a TAG_List. Interface slices must hold a single concrete type;
// an empty list is written with element type TAG_End.
func (e *Encoder) list(val reflect.Value) error {
	n := val.Len()
	elem := val.Type().Elem()
	if elem.Kind() == reflect.Interface && n > 0 {
		concrete := val.Index(0).Elem().Type()
		for i := 1; i < n; i++ {
			if t := val.Index(i).Elem().Type(); t != concrete {
				return fmt.Errorf("%w: mixed list of %s and %s", ErrUnsupported, concrete, t)
			}
		}
		elem = concrete
	}

	elemTag := TagEnd
	if n > 0 || elem.Kind() != reflect.Interface {
		var err error
		if elemTag, err = tagOf(elem); err != nil {
			return err
		}
	}
	if err := e.u8(elemTag); err != nil {
		return err
	}
	if err := e.u32(uint32(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		item := val.Index(i)
		for item.Kind() == reflect.Interface || item.Kind() == reflect.Ptr {
			item = item.Elem()
		}
		if err := e.payload(item, elemTag); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) compoundStruct(val reflect.Value) error {
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("nbt")
		if (f.PkgPath != "" && !f.Anonymous) || tag == "-" {
			continue
		}
		name := f.Name
		if tag != "" {
			name = tag
		}
		if err := e.named(val.Field(i), name); err != nil {
			return err
		}
	}
	return e.u8(TagEnd)
}

func (e *Encoder) compoundMap(val reflect.Value) error {
	keys := val.MapKeys()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		if err := e.named(val.MapIndex(k), k.String()); err != nil {
			return err
		}
	}
	return e.u8(TagEnd)
}

func integer(val reflect.Value) int64 {
	switch val.Kind() {
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(val.Uint())
	}
	return val.Int()
}

func (e *Encoder) header(tag byte, name string) error {
	if err := e.u8(tag); err != nil {
		return err
	}
	return e.str(name)
}

func (e *Encoder) str(s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes", ErrUnsupported, len(s))
	}
	if err := e.u16(uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

func (e *Encoder) u8(b byte) error {
	e.buf[0] = b
	_, err := e.w.Write(e.buf[:1])
	return err
}

func (e *Encoder) u16(n uint16) error {
	binary.BigEndian.PutUint16(e.buf[:2], n)
	_, err := e.w.Write(e.buf[:2])
	return err
}

func (e *Encoder) u32(n uint32) error {
	binary.BigEndian.PutUint32(e.buf[:4], n)
	_, err := e.w.Write(e.buf[:4])
	return err
}

func (e *Encoder) u64(n uint64) error {
	binary.BigEndian.PutUint64(e.buf[:8], n)
	_, err := e.w.Write(e.buf[:8])
	return err
}
