// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/textmine/corpusdb/fault"
)

type PoolHandle struct {
	prefix     []byte
	limit      []byte
	dataAccess Access
}

// a binary data item
type Element struct {
	Key   []byte
	Value []byte
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, len(p.prefix), len(p.prefix)+len(key))
	copy(prefixedKey, p.prefix)
	return append(prefixedKey, key...)
}

// store a key/value bytes pair directly to the database
//
// bypasses the batch; ingest runs stage through a Batch instead
func (p *PoolHandle) Put(key []byte, value []byte) {
	poolData.RLock()
	defer poolData.RUnlock()
	if nil == poolData.db {
		fault.Panic("pool.Put nil database")
		return
	}
	err := poolData.db.Put(p.prefixKey(key), value, nil)
	fault.PanicIfError("pool.Put", err)
}

// read a value for a given key
//
// this returns the actual element - copy the result if it must be preserved
// a missing key yields nil
func (p *PoolHandle) Get(key []byte) []byte {
	poolData.RLock()
	defer poolData.RUnlock()
	if nil == poolData.db {
		return nil
	}
	value, err := p.dataAccess.Get(p.prefixKey(key))
	if leveldb.ErrNotFound == err {
		return nil
	}
	fault.PanicIfError("pool.Get", err)
	return value
}

// Check if a key exists
func (p *PoolHandle) Has(key []byte) bool {
	poolData.RLock()
	defer poolData.RUnlock()
	if nil == poolData.db {
		return false
	}
	value, err := p.dataAccess.Has(p.prefixKey(key))
	fault.PanicIfError("pool.Has", err)
	return value
}

// Fetch - return some elements of the pool in key order
//
// the pool prefix is stripped from the returned keys
func (p *PoolHandle) Fetch(count int) ([]Element, error) {
	poolData.RLock()
	defer poolData.RUnlock()
	if nil == poolData.db {
		return nil, fault.ErrNotInitialised
	}

	iter := p.dataAccess.Iterator(&ldb_util.Range{
		Start: p.prefix,
		Limit: p.limit,
	})
	defer iter.Release()

	results := make([]Element, 0, count)
	n := 0
	for iter.Next() {
		if n >= count {
			break
		}
		key := iter.Key()
		strippedKey := make([]byte, len(key)-len(p.prefix))
		copy(strippedKey, key[len(p.prefix):])

		value := iter.Value()
		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		results = append(results, Element{
			Key:   strippedKey,
			Value: dataValue,
		})
		n += 1
	}
	return results, iter.Error()
}

// LastElement - get the last element in a pool
func (p *PoolHandle) LastElement() (Element, bool) {
	poolData.RLock()
	defer poolData.RUnlock()

	result := Element{}
	if nil == poolData.db {
		return result, false
	}

	iter := p.dataAccess.Iterator(&ldb_util.Range{
		Start: p.prefix,
		Limit: p.limit,
	})
	defer iter.Release()

	found := false
	if iter.Last() {
		key := iter.Key()
		strippedKey := make([]byte, len(key)-len(p.prefix))
		copy(strippedKey, key[len(p.prefix):])

		value := iter.Value()
		dataValue := make([]byte, len(value))
		copy(dataValue, value)

		result.Key = strippedKey
		result.Value = dataValue
		found = true
	}
	return result, found
}
