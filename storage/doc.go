// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk dataset container
//
// The container is a single ordered key-value database (goleveldb)
// holding one ingested corpus.  Records are grouped into pools by a
// textual key prefix:
//
//	image-    raw encoded image bytes
//	label-    UTF-8 ground-truth transcription
//	lexicon-  space-joined candidate words
//	          (no prefix) control records, currently only "num-samples"
//
// Within a pool the key is the 9 digit zero padded decimal record
// index, starting at 1 with no gaps.  All writes during an ingest run
// go through a single Batch which commits its staged records as one
// atomic leveldb write.  The database only ever has one writer; the
// Batch gate enforces this within the process and leveldb's file lock
// enforces it between processes.
package storage
