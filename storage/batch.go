// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/textmine/corpusdb/fault"
)

// Batch - the staging accumulator for one ingest run
//
// records staged here are only durable after Commit; only one batch
// can be open at a time
type Batch struct {
	access Access
	count  int
}

// NewBatch - acquire the single writer gate
func NewBatch() (*Batch, error) {
	poolData.RLock()
	defer poolData.RUnlock()

	if nil == poolData.db {
		return nil, fault.ErrNotInitialised
	}
	if poolData.readOnly {
		return nil, fault.ErrStoreIsReadOnly
	}
	if err := poolData.access.Begin(); nil != err {
		return nil, err
	}
	return &Batch{access: poolData.access}, nil
}

// Stage - queue one record under the pool's prefix
func (b *Batch) Stage(p *PoolHandle, key []byte, value []byte) {
	b.access.Put(p.prefixKey(key), value)
	b.count += 1
}

// Count - number of records staged since the last commit
func (b *Batch) Count() int {
	return b.count
}

// PendingBytes - approximate size of the staged records
func (b *Batch) PendingBytes() int64 {
	return b.access.Pending()
}

// Commit - durably write everything staged as one atomic transaction
//
// the batch stays open so staging can continue after a flush
func (b *Batch) Commit() error {
	err := b.access.Commit()
	if nil == err {
		b.count = 0
	}
	return err
}

// Release - discard anything still staged and free the writer gate
func (b *Batch) Release() {
	b.access.Abort()
	b.count = 0
}
