// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package groundtruth_test

import (
	"bytes"
	"encoding/binary"
	"io/ioutil"
	"math"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"

	"github.com/textmine/corpusdb/fault"
	"github.com/textmine/corpusdb/groundtruth"
)

// ----- minimal little-endian MAT 5 writer for fixtures -----

const (
	miINT8   = 1
	miUINT16 = 4
	miINT32  = 5
	miUINT32 = 6
	miDOUBLE = 9
	miMATRIX = 14

	miCOMPRESSED = 15

	mxCellClass   = 1
	mxStructClass = 2
	mxCharClass   = 4
	mxDoubleClass = 6

	fieldNameLength = 32
)

func element(dataType uint32, payload []byte) []byte {
	out := make([]byte, 8, 8+len(payload)+7)
	binary.LittleEndian.PutUint32(out[0:], dataType)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	out = append(out, payload...)
	for 0 != len(out)%8 {
		out = append(out, 0)
	}
	return out
}

func int32Payload(values ...int32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

func matrixHeader(class uint32, rows int32, columns int32, name string) []byte {
	flags := make([]byte, 8)
	binary.LittleEndian.PutUint32(flags, class)

	out := element(miUINT32, flags)
	out = append(out, element(miINT32, int32Payload(rows, columns))...)
	out = append(out, element(miINT8, []byte(name))...)
	return out
}

func charMatrix(name string, s string) []byte {
	units := utf16.Encode([]rune(s))
	payload := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(payload[2*i:], u)
	}

	body := matrixHeader(mxCharClass, 1, int32(len(units)), name)
	body = append(body, element(miUINT16, payload)...)
	return element(miMATRIX, body)
}

func doubleMatrix(name string, rows [][]float64) []byte {
	r := len(rows)
	c := 0
	if r > 0 {
		c = len(rows[0])
	}

	// column major
	payload := make([]byte, 8*r*c)
	for j := 0; j < c; j += 1 {
		for i := 0; i < r; i += 1 {
			binary.LittleEndian.PutUint64(payload[8*(j*r+i):], math.Float64bits(rows[i][j]))
		}
	}

	body := matrixHeader(mxDoubleClass, int32(r), int32(c), name)
	body = append(body, element(miDOUBLE, payload)...)
	return element(miMATRIX, body)
}

func structMatrix(name string, entries []groundtruth.Entry) []byte {
	body := matrixHeader(mxStructClass, 1, int32(len(entries)), name)
	body = append(body, element(miINT32, int32Payload(fieldNameLength))...)

	names := make([]byte, 3*fieldNameLength)
	copy(names[0:], "ImgName")
	copy(names[fieldNameLength:], "chars")
	copy(names[2*fieldNameLength:], "charBB")
	body = append(body, element(miINT8, names)...)

	for _, e := range entries {
		body = append(body, charMatrix("", e.ImageName)...)
		body = append(body, charMatrix("", e.Characters)...)
		body = append(body, doubleMatrix("", e.Boxes)...)
	}
	return element(miMATRIX, body)
}

func matFile(elements ...[]byte) []byte {
	header := make([]byte, 128)
	copy(header, "MATLAB 5.0 MAT-file, test fixture")
	binary.LittleEndian.PutUint16(header[124:], 0x0100)
	header[126] = 'I'
	header[127] = 'M'

	out := header
	for _, e := range elements {
		out = append(out, e...)
	}
	return out
}

func compressed(inner []byte) []byte {
	buffer := &bytes.Buffer{}
	w := zlib.NewWriter(buffer)
	_, _ = w.Write(inner)
	_ = w.Close()

	out := make([]byte, 8)
	binary.LittleEndian.PutUint32(out[0:], miCOMPRESSED)
	binary.LittleEndian.PutUint32(out[4:], uint32(buffer.Len()))
	return append(out, buffer.Bytes()...)
}

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "groundtruth-test")
	if nil != err {
		t.Fatalf("tempdir error: %s", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	name := filepath.Join(dir, "charbound.mat")
	err = ioutil.WriteFile(name, data, 0600)
	if nil != err {
		t.Fatalf("write fixture error: %s", err)
	}
	return name
}

var testEntries = []groundtruth.Entry{
	{
		ImageName:  "train/1_1.png",
		Characters: "YOU",
		Boxes: [][]float64{
			{1, 2, 20, 30},
			{21, 2, 18, 30},
			{40, 2, 19, 30},
		},
	},
	{
		ImageName:  "train/2_1.png",
		Characters: "GO",
		Boxes: [][]float64{
			{5, 5, 12, 24},
			{18, 5, 12, 24},
		},
	},
}

// ----- tests -----

func TestCharBounds(t *testing.T) {
	name := writeFixture(t, matFile(structMatrix("trainCharBound", testEntries)))

	f, err := groundtruth.Read(name)
	assert.NoError(t, err)
	assert.Equal(t, []string{"trainCharBound"}, f.Keys())

	entries, err := f.CharBounds("trainCharBound")
	assert.NoError(t, err)
	assert.Equal(t, testEntries, entries)
}

func TestCharBoundsMissingKey(t *testing.T) {
	name := writeFixture(t, matFile(structMatrix("trainCharBound", testEntries)))

	f, err := groundtruth.Read(name)
	assert.NoError(t, err)

	entries, err := f.CharBounds("testCharBound")
	assert.Equal(t, fault.ErrAnnotationKeyNotFound, err)
	assert.Nil(t, entries)
}

func TestCompressedElement(t *testing.T) {
	name := writeFixture(t, matFile(compressed(structMatrix("testCharBound", testEntries))))

	f, err := groundtruth.Read(name)
	assert.NoError(t, err)

	entries, err := f.CharBounds("testCharBound")
	assert.NoError(t, err)
	assert.Equal(t, testEntries, entries)
}

func TestMultipleVariables(t *testing.T) {
	name := writeFixture(t, matFile(
		structMatrix("trainCharBound", testEntries[:1]),
		structMatrix("testCharBound", testEntries[1:]),
	))

	f, err := groundtruth.Read(name)
	assert.NoError(t, err)
	assert.Equal(t, []string{"testCharBound", "trainCharBound"}, f.Keys())

	train, err := f.CharBounds("trainCharBound")
	assert.NoError(t, err)
	assert.Equal(t, testEntries[:1], train)

	test, err := f.CharBounds("testCharBound")
	assert.NoError(t, err)
	assert.Equal(t, testEntries[1:], test)
}

func TestTruncatedFile(t *testing.T) {
	name := writeFixture(t, []byte("MATLAB 5.0"))

	_, err := groundtruth.Read(name)
	assert.Equal(t, fault.ErrAnnotationFileCorrupt, err)
}

func TestBadEndianIndicator(t *testing.T) {
	data := matFile()
	data[126] = 'X'
	data[127] = 'X'
	name := writeFixture(t, data)

	_, err := groundtruth.Read(name)
	assert.Equal(t, fault.ErrAnnotationFileCorrupt, err)
}

func TestNegativeDimension(t *testing.T) {

	// a cell array declaring -1 elements must be rejected,
	// not allocated
	body := matrixHeader(mxCellClass, -1, 1, "broken")
	name := writeFixture(t, matFile(element(miMATRIX, body)))

	_, err := groundtruth.Read(name)
	assert.Equal(t, fault.ErrAnnotationFileCorrupt, err)
}

func TestOversizedDimensions(t *testing.T) {

	// a dimension product far beyond the file size
	body := matrixHeader(mxDoubleClass, 1<<30, 1<<30, "broken")
	name := writeFixture(t, matFile(element(miMATRIX, body)))

	_, err := groundtruth.Read(name)
	assert.Equal(t, fault.ErrAnnotationFileCorrupt, err)
}

func TestNonStructKey(t *testing.T) {
	name := writeFixture(t, matFile(charMatrix("trainCharBound", "not a struct")))

	f, err := groundtruth.Read(name)
	assert.NoError(t, err)

	_, err = f.CharBounds("trainCharBound")
	assert.Equal(t, fault.ErrUnsupportedAnnotationData, err)
}
