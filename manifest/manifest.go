// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package manifest - load the tabular description of a corpus
//
// The manifest is a comma separated file with a header row.  Required
// columns are "ImgName" and "GroundTruth"; the optional "smallLexi"
// and "mediumLexi" columns carry per-image candidate word lists.
package manifest

import (
	"encoding/csv"
	"os"
	"path/filepath"

	"github.com/textmine/corpusdb/fault"
)

// recognised column names
const (
	ImageNameColumn     = "ImgName"
	GroundTruthColumn   = "GroundTruth"
	SmallLexiconColumn  = "smallLexi"
	MediumLexiconColumn = "mediumLexi"
)

// Manifest - the parallel per-row sequences of one loaded manifest
//
// all four slices have the same length and preserve the row order of
// the input file; a missing optional column leaves empty strings
type Manifest struct {
	ImagePaths     []string
	Labels         []string
	SmallLexicons  []string
	MediumLexicons []string
}

// Count - number of rows loaded
func (m *Manifest) Count() int {
	return len(m.ImagePaths)
}

// Load - read a manifest file
//
// the image prefix is joined onto every ImgName cell to form the full
// image path; rows are not validated or deduplicated here
func Load(manifestFile string, imagePrefix string) (*Manifest, error) {

	f, err := os.Open(manifestFile)
	if nil != err {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // short rows are padded below

	allRows, err := reader.ReadAll()
	if nil != err {
		return nil, err
	}
	if 0 == len(allRows) {
		return nil, fault.ErrManifestColumnMissing
	}

	header := allRows[0]
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}

	imageColumn, ok := columns[ImageNameColumn]
	if !ok {
		return nil, fault.ErrManifestColumnMissing
	}
	labelColumn, ok := columns[GroundTruthColumn]
	if !ok {
		return nil, fault.ErrManifestColumnMissing
	}
	smallColumn, haveSmall := columns[SmallLexiconColumn]
	mediumColumn, haveMedium := columns[MediumLexiconColumn]

	rows := allRows[1:]
	m := &Manifest{
		ImagePaths:     make([]string, 0, len(rows)),
		Labels:         make([]string, 0, len(rows)),
		SmallLexicons:  make([]string, 0, len(rows)),
		MediumLexicons: make([]string, 0, len(rows)),
	}

	cell := func(row []string, column int) string {
		if column < len(row) {
			return row[column]
		}
		return ""
	}

	for _, row := range rows {
		m.ImagePaths = append(m.ImagePaths, filepath.Join(imagePrefix, cell(row, imageColumn)))
		m.Labels = append(m.Labels, cell(row, labelColumn))

		small := ""
		if haveSmall {
			small = cell(row, smallColumn)
		}
		m.SmallLexicons = append(m.SmallLexicons, small)

		medium := ""
		if haveMedium {
			medium = cell(row, mediumColumn)
		}
		m.MediumLexicons = append(m.MediumLexicons, medium)
	}

	return m, nil
}
