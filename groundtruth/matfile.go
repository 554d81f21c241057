// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package groundtruth

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"math"
	"unicode/utf16"

	"github.com/klauspost/compress/zlib"

	"github.com/textmine/corpusdb/fault"
)

// MAT level 5 data element types
const (
	miINT8       = 1
	miUINT8      = 2
	miINT16      = 3
	miUINT16     = 4
	miINT32      = 5
	miUINT32     = 6
	miSINGLE     = 7
	miDOUBLE     = 9
	miINT64      = 12
	miUINT64     = 13
	miMATRIX     = 14
	miCOMPRESSED = 15
	miUTF8       = 16
	miUTF16      = 17
)

// MAT level 5 array classes
const (
	mxCellClass   = 1
	mxStructClass = 2
	mxCharClass   = 4
	mxDoubleClass = 6
	mxSingleClass = 7
	mxInt8Class   = 8
	mxUint8Class  = 9
	mxInt16Class  = 10
	mxUint16Class = 11
	mxInt32Class  = 12
	mxUint32Class = 13
	mxInt64Class  = 14
	mxUint64Class = 15
)

const headerSize = 128

// one decoded array; which members are set depends on the class
type array struct {
	class   uint32
	dims    []int
	name    string
	doubles []float64  // numeric classes, column major
	chars   string     // char class
	cells   []*array   // cell class
	fields  []string   // struct class
	values  [][]*array // struct class: per element, per field
}

type decoder struct {
	order binary.ByteOrder
}

// Read - parse an annotation file
func Read(path string) (*File, error) {
	buffer, err := ioutil.ReadFile(path)
	if nil != err {
		return nil, err
	}
	return parse(buffer)
}

// parse a whole MAT container from memory
func parse(buffer []byte) (*File, error) {

	if len(buffer) < headerSize {
		return nil, fault.ErrAnnotationFileCorrupt
	}

	d := &decoder{}
	switch string(buffer[126:128]) {
	case "IM":
		d.order = binary.LittleEndian
	case "MI":
		d.order = binary.BigEndian
	default:
		return nil, fault.ErrAnnotationFileCorrupt
	}

	f := &File{
		variables: make(map[string]*array),
	}

	pos := headerSize
	for pos+8 <= len(buffer) {
		dataType, payload, next, err := d.element(buffer, pos)
		if nil != err {
			return nil, err
		}

		switch dataType {

		case miCOMPRESSED:
			inflated, err := inflate(payload)
			if nil != err {
				return nil, fault.ErrAnnotationFileCorrupt
			}
			innerType, innerPayload, _, err := d.element(inflated, 0)
			if nil != err {
				return nil, err
			}
			if miMATRIX != innerType {
				return nil, fault.ErrUnsupportedAnnotationData
			}
			a, err := d.matrix(innerPayload)
			if nil != err {
				return nil, err
			}
			f.variables[a.name] = a

		case miMATRIX:
			a, err := d.matrix(payload)
			if nil != err {
				return nil, err
			}
			f.variables[a.name] = a

		default:
			// other top-level elements carry no annotation data
		}

		pos = next
	}
	return f, nil
}

// read one tagged data element
//
// handles both the normal 8 byte tag and the packed small element
// form; the returned position is aligned for the next element
func (d *decoder) element(buffer []byte, pos int) (uint32, []byte, int, error) {

	if pos+8 > len(buffer) {
		return 0, nil, 0, fault.ErrAnnotationFileCorrupt
	}

	first := d.order.Uint32(buffer[pos:])
	if small := first >> 16; 0 != small {
		// small element: size and type packed into the first word
		size := int(small)
		if size > 4 {
			return 0, nil, 0, fault.ErrAnnotationFileCorrupt
		}
		return first & 0xffff, buffer[pos+4 : pos+4+size], pos + 8, nil
	}

	size := int(d.order.Uint32(buffer[pos+4:]))
	start := pos + 8
	if size < 0 || start+size > len(buffer) {
		return 0, nil, 0, fault.ErrAnnotationFileCorrupt
	}

	next := start + size
	if miCOMPRESSED != first {
		// data is padded to an 8 byte boundary, compressed
		// streams are stored unpadded
		if r := next % 8; 0 != r {
			next += 8 - r
		}
		if next > len(buffer) {
			next = len(buffer)
		}
	}
	return first, buffer[start : start+size], next, nil
}

// decode one miMATRIX payload
func (d *decoder) matrix(buffer []byte) (*array, error) {

	// an empty element stands for an empty array
	if 0 == len(buffer) {
		return &array{class: mxDoubleClass}, nil
	}

	// array flags
	dataType, payload, pos, err := d.element(buffer, 0)
	if nil != err {
		return nil, err
	}
	if miUINT32 != dataType || len(payload) < 4 {
		return nil, fault.ErrAnnotationFileCorrupt
	}
	flags := d.order.Uint32(payload)

	a := &array{
		class: flags & 0xff,
	}

	// dimensions
	dataType, payload, pos, err = d.element(buffer, pos)
	if nil != err {
		return nil, err
	}
	if miINT32 != dataType {
		return nil, fault.ErrAnnotationFileCorrupt
	}
	a.dims = make([]int, len(payload)/4)
	n := 1
	for i := range a.dims {
		dim := int(int32(d.order.Uint32(payload[4*i:])))

		// the element count is later fed to make; a negative
		// dimension or a product beyond the element payload can
		// only come from a damaged file
		if dim < 0 {
			return nil, fault.ErrAnnotationFileCorrupt
		}
		a.dims[i] = dim
		n *= dim
		if n > len(buffer) {
			return nil, fault.ErrAnnotationFileCorrupt
		}
	}

	// array name
	dataType, payload, pos, err = d.element(buffer, pos)
	if nil != err {
		return nil, err
	}
	if miINT8 != dataType && miUINT8 != dataType {
		return nil, fault.ErrAnnotationFileCorrupt
	}
	a.name = string(payload)

	switch a.class {

	case mxCharClass:
		dataType, payload, _, err = d.element(buffer, pos)
		if nil != err {
			return nil, err
		}
		a.chars, err = d.decodeChars(dataType, payload)
		if nil != err {
			return nil, err
		}

	case mxDoubleClass, mxSingleClass,
		mxInt8Class, mxUint8Class,
		mxInt16Class, mxUint16Class,
		mxInt32Class, mxUint32Class,
		mxInt64Class, mxUint64Class:
		// real part only; an imaginary part, if any, is ignored
		dataType, payload, _, err = d.element(buffer, pos)
		if nil != err {
			return nil, err
		}
		a.doubles, err = d.decodeNumbers(dataType, payload)
		if nil != err {
			return nil, err
		}

	case mxCellClass:
		n := elementCount(a.dims)
		a.cells = make([]*array, 0, n)
		for i := 0; i < n; i += 1 {
			dataType, payload, pos, err = d.element(buffer, pos)
			if nil != err {
				return nil, err
			}
			if miMATRIX != dataType {
				return nil, fault.ErrAnnotationFileCorrupt
			}
			cell, err := d.matrix(payload)
			if nil != err {
				return nil, err
			}
			a.cells = append(a.cells, cell)
		}

	case mxStructClass:
		// field name length
		dataType, payload, pos, err = d.element(buffer, pos)
		if nil != err {
			return nil, err
		}
		if miINT32 != dataType || len(payload) < 4 {
			return nil, fault.ErrAnnotationFileCorrupt
		}
		nameLength := int(int32(d.order.Uint32(payload)))
		if nameLength <= 0 {
			return nil, fault.ErrAnnotationFileCorrupt
		}

		// field names, NUL padded to the fixed length
		dataType, payload, pos, err = d.element(buffer, pos)
		if nil != err {
			return nil, err
		}
		if miINT8 != dataType && miUINT8 != dataType {
			return nil, fault.ErrAnnotationFileCorrupt
		}
		fieldCount := len(payload) / nameLength
		a.fields = make([]string, fieldCount)
		for i := 0; i < fieldCount; i += 1 {
			name := payload[i*nameLength : (i+1)*nameLength]
			if end := bytes.IndexByte(name, 0); end >= 0 {
				name = name[:end]
			}
			a.fields[i] = string(name)
		}

		// one matrix per field per element, element major
		n := elementCount(a.dims)
		a.values = make([][]*array, n)
		for i := 0; i < n; i += 1 {
			a.values[i] = make([]*array, fieldCount)
			for j := 0; j < fieldCount; j += 1 {
				dataType, payload, pos, err = d.element(buffer, pos)
				if nil != err {
					return nil, err
				}
				if miMATRIX != dataType {
					return nil, fault.ErrAnnotationFileCorrupt
				}
				value, err := d.matrix(payload)
				if nil != err {
					return nil, err
				}
				a.values[i][j] = value
			}
		}

	default:
		return nil, fault.ErrUnsupportedAnnotationData
	}

	return a, nil
}

func (d *decoder) decodeChars(dataType uint32, payload []byte) (string, error) {
	switch dataType {
	case miINT8, miUINT8, miUTF8:
		return string(payload), nil
	case miINT16, miUINT16, miUTF16:
		units := make([]uint16, len(payload)/2)
		for i := range units {
			units[i] = d.order.Uint16(payload[2*i:])
		}
		return string(utf16.Decode(units)), nil
	}
	return "", fault.ErrUnsupportedAnnotationData
}

func (d *decoder) decodeNumbers(dataType uint32, payload []byte) ([]float64, error) {
	switch dataType {
	case miDOUBLE:
		out := make([]float64, len(payload)/8)
		for i := range out {
			out[i] = math.Float64frombits(d.order.Uint64(payload[8*i:]))
		}
		return out, nil
	case miSINGLE:
		out := make([]float64, len(payload)/4)
		for i := range out {
			out[i] = float64(math.Float32frombits(d.order.Uint32(payload[4*i:])))
		}
		return out, nil
	case miINT8:
		out := make([]float64, len(payload))
		for i := range out {
			out[i] = float64(int8(payload[i]))
		}
		return out, nil
	case miUINT8:
		out := make([]float64, len(payload))
		for i := range out {
			out[i] = float64(payload[i])
		}
		return out, nil
	case miINT16:
		out := make([]float64, len(payload)/2)
		for i := range out {
			out[i] = float64(int16(d.order.Uint16(payload[2*i:])))
		}
		return out, nil
	case miUINT16:
		out := make([]float64, len(payload)/2)
		for i := range out {
			out[i] = float64(d.order.Uint16(payload[2*i:]))
		}
		return out, nil
	case miINT32:
		out := make([]float64, len(payload)/4)
		for i := range out {
			out[i] = float64(int32(d.order.Uint32(payload[4*i:])))
		}
		return out, nil
	case miUINT32:
		out := make([]float64, len(payload)/4)
		for i := range out {
			out[i] = float64(d.order.Uint32(payload[4*i:]))
		}
		return out, nil
	case miINT64:
		out := make([]float64, len(payload)/8)
		for i := range out {
			out[i] = float64(int64(d.order.Uint64(payload[8*i:])))
		}
		return out, nil
	case miUINT64:
		out := make([]float64, len(payload)/8)
		for i := range out {
			out[i] = float64(d.order.Uint64(payload[8*i:]))
		}
		return out, nil
	}
	return nil, fault.ErrUnsupportedAnnotationData
}

func inflate(payload []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(payload))
	if nil != err {
		return nil, err
	}
	defer r.Close()
	return ioutil.ReadAll(r)
}

func elementCount(dims []int) int {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return n
}

// text - the char array content, empty for anything else
func (a *array) text() string {
	return a.chars
}

// rows - a 2-D numeric array as row slices
//
// MAT numeric data is column major; a bounding box matrix of N
// characters is N rows of 4 values
func (a *array) rows() [][]float64 {
	if 2 != len(a.dims) {
		return nil
	}
	r := a.dims[0]
	c := a.dims[1]
	if 0 == r || 0 == c || len(a.doubles) < r*c {
		return nil
	}
	out := make([][]float64, r)
	for i := 0; i < r; i += 1 {
		row := make([]float64, c)
		for j := 0; j < c; j += 1 {
			row[j] = a.doubles[j*r+i]
		}
		out[i] = row
	}
	return out
}
