// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ingest - build the dataset container from a loaded manifest
//
// Strictly sequential over the manifest rows: read each image, decide
// its validity, stage image/label/lexicon records under the next
// record index, and commit to the container in fixed size batches.
// Row problems are diagnostics, never fatal; only container failures
// abort a run.
package ingest

import (
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bitmark-inc/logger"
	gocache "github.com/patrickmn/go-cache"

	"github.com/textmine/corpusdb/fault"
	"github.com/textmine/corpusdb/manifest"
	"github.com/textmine/corpusdb/raster"
	"github.com/textmine/corpusdb/storage"
)

// which manifest lexicon column feeds the lexicon- records
const (
	LexiconNone   = "none"
	LexiconSmall  = "small"
	LexiconMedium = "medium"
)

// DefaultBatchSize - records staged between commits
const DefaultBatchSize = 1000

// how long a per-path validity verdict stays memoised; manifests can
// reference the same image file from several rows
const verdictMemoExpiry = 5 * time.Minute

// Options - one ingest run
type Options struct {
	OutputPath string // container location, created if missing
	CheckValid bool   // decode every image before accepting it
	Capacity   int64  // container byte ceiling, 0 selects the default
	BatchSize  int    // records per commit, 0 selects the default
	Lexicon    string // manifest lexicon column, "" means none
}

// Run - ingest a loaded manifest into one dataset container
//
// returns the count of successfully written samples; the same count is
// stored under the "num-samples" control key by the final commit
func Run(log *logger.L, options Options, m *manifest.Manifest) (uint64, error) {

	batchSize := options.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	lexicons, err := lexiconColumn(m, options.Lexicon)
	if nil != err {
		return 0, err
	}

	err = storage.Initialise(options.OutputPath, options.Capacity, storage.ReadWrite)
	if nil != err {
		return 0, err
	}
	defer storage.Finalise()

	batch, err := storage.NewBatch()
	if nil != err {
		return 0, err
	}
	defer batch.Release()

	verdicts := gocache.New(verdictMemoExpiry, 2*verdictMemoExpiry)

	total := m.Count()
	count := uint64(1)

	for i, imagePath := range m.ImagePaths {

		data, err := ioutil.ReadFile(imagePath)
		if os.IsNotExist(err) {
			log.Warnf("%s does not exist", imagePath)
			continue
		}
		if nil != err {
			log.Warnf("%s cannot be read: %s", imagePath, err)
			continue
		}

		if options.CheckValid && !memoisedValid(verdicts, imagePath, data) {
			log.Warnf("%s is not a valid image", imagePath)
			continue
		}

		key := storage.IndexKey(count)
		batch.Stage(storage.Pool.Images, key, data)
		batch.Stage(storage.Pool.Labels, key, []byte(m.Labels[i]))

		if nil != lexicons && "" != lexicons[i] {
			batch.Stage(storage.Pool.Lexicons, key, []byte(joinWords(lexicons[i])))
		}

		if count%uint64(batchSize) == 0 {
			err = batch.Commit()
			if nil != err {
				return 0, err
			}
			log.Infof("written %d / %d", count, total)
		}

		count += 1
	}

	nSamples := count - 1
	batch.Stage(storage.Pool.Control, storage.NumSamplesKey, []byte(strconv.FormatUint(nSamples, 10)))

	err = batch.Commit()
	if nil != err {
		return 0, err
	}

	log.Infof("created dataset with %d samples", nSamples)
	return nSamples, nil
}

// select the manifest column feeding lexicon- records
//
// the medium column is always loaded but only used when explicitly
// asked for
func lexiconColumn(m *manifest.Manifest, choice string) ([]string, error) {
	switch choice {
	case "", LexiconNone:
		return nil, nil
	case LexiconSmall:
		return m.SmallLexicons, nil
	case LexiconMedium:
		return m.MediumLexicons, nil
	}
	return nil, fault.ErrUnknownLexiconColumn
}

// verdicts are memoised per path so a file referenced by several rows
// is only decoded once; the existence check above is never skipped
func memoisedValid(verdicts *gocache.Cache, imagePath string, data []byte) bool {
	if verdict, found := verdicts.Get(imagePath); found {
		return verdict.(bool)
	}
	verdict := raster.Valid(data)
	verdicts.SetDefault(imagePath, verdict)
	return verdict
}

// normalise one lexicon cell to single space separated words
//
// cells may delimit candidate words with spaces, commas or semicolons
func joinWords(cell string) string {
	words := strings.FieldsFunc(cell, func(r rune) bool {
		return ' ' == r || '\t' == r || ',' == r || ';' == r
	})
	return strings.Join(words, " ")
}
