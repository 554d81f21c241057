// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package groundtruth - extract character annotations from MAT files
//
// Reads the level 5 MAT container used by the corpus annotation
// archives.  Only the subset needed for the charBound structures is
// decoded: struct, char, cell and numeric arrays, plus zlib
// compressed elements.  The extractor exposes per-image entries of
// (image name, character sequence, per-character bounding boxes) and
// performs no validation beyond structural decoding.
package groundtruth

import (
	"sort"

	"github.com/textmine/corpusdb/fault"
)

// Entry - the annotation of one image
type Entry struct {
	ImageName  string      // relative image file name
	Characters string      // the transcribed character sequence
	Boxes      [][]float64 // one bounding box row per character
}

// File - one parsed annotation file
type File struct {
	variables map[string]*array
}

// Keys - the top-level variable names present in the file
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.variables))
	for name := range f.variables {
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return keys
}

// names of the struct fields carrying the annotation
const (
	imageNameField  = "ImgName"
	charactersField = "chars"
	boxesField      = "charBB"
)

// CharBounds - extract the annotation entries stored under a key
//
// the key is normally "trainCharBound" or "testCharBound"; a missing
// key is the extractor's own failure mode and yields no data
func (f *File) CharBounds(key string) ([]Entry, error) {

	a, ok := f.variables[key]
	if !ok {
		return nil, fault.ErrAnnotationKeyNotFound
	}
	if mxStructClass != a.class {
		return nil, fault.ErrUnsupportedAnnotationData
	}

	imageIndex := fieldIndex(a.fields, imageNameField)
	charactersIndex := fieldIndex(a.fields, charactersField)
	boxesIndex := fieldIndex(a.fields, boxesField)
	if imageIndex < 0 || charactersIndex < 0 || boxesIndex < 0 {
		return nil, fault.ErrUnsupportedAnnotationData
	}

	entries := make([]Entry, 0, len(a.values))
	for _, fields := range a.values {
		entries = append(entries, Entry{
			ImageName:  fields[imageIndex].text(),
			Characters: fields[charactersIndex].text(),
			Boxes:      fields[boxesIndex].rows(),
		})
	}
	return entries, nil
}

func fieldIndex(fields []string, name string) int {
	for i, f := range fields {
		if f == name {
			return i
		}
	}
	return -1
}
