// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/textmine/corpusdb/fault"
)

// for Database
type Access interface {
	Abort()
	Begin() error
	Commit() error
	Get([]byte) ([]byte, error)
	Has([]byte) (bool, error)
	InUse() bool
	Iterator(*ldb_util.Range) iterator.Iterator
	Pending() int64
	Put([]byte, []byte)
}

type AccessData struct {
	sync.Mutex
	inUse   bool
	db      *leveldb.DB
	batch   *leveldb.Batch
	pending int64
}

func newDA(db *leveldb.DB, trx *leveldb.Batch) Access {
	return &AccessData{
		inUse: false,
		db:    db,
		batch: trx,
	}
}

func (d *AccessData) Begin() error {
	d.Lock()
	defer d.Unlock()

	if d.inUse {
		return fault.ErrBatchAlreadyInUse
	}

	d.inUse = true
	return nil
}

func (d *AccessData) Put(key []byte, value []byte) {
	d.batch.Put(key, value)
	d.pending += int64(len(key) + len(value))
}

// Commit - one atomic write of everything staged since the last commit
//
// the capacity ceiling is checked here: a commit that would grow the
// container past it fails and nothing from this batch is written
func (d *AccessData) Commit() error {
	d.Lock()
	defer d.Unlock()

	if poolData.used+d.pending > poolData.capacity {
		return fault.ErrStoreCapacityExceeded
	}

	err := d.db.Write(d.batch, nil)
	if nil != err {
		return err
	}
	poolData.used += d.pending
	d.pending = 0
	d.batch.Reset()
	return nil
}

func (d *AccessData) Get(key []byte) ([]byte, error) {
	return d.db.Get(key, nil)
}

func (d *AccessData) Iterator(searchRange *ldb_util.Range) iterator.Iterator {
	return d.db.NewIterator(searchRange, nil)
}

func (d *AccessData) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

func (d *AccessData) InUse() bool {
	return d.inUse
}

func (d *AccessData) Pending() int64 {
	return d.pending
}

func (d *AccessData) Abort() {
	d.Lock()
	defer d.Unlock()

	d.batch.Reset()
	d.pending = 0
	d.inUse = false
}
