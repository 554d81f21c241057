// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/textmine/corpusdb/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Images   *PoolHandle `prefix:"image-"`
	Labels   *PoolHandle `prefix:"label-"`
	Lexicons *PoolHandle `prefix:"lexicon-"`
	Control  *PoolHandle `prefix:""`
}

// Pool - the set of exported pools
var Pool pools

// NumSamplesKey - the control record holding the final sample count as
// a decimal string; written once, by the final commit of a run
var NumSamplesKey = []byte("num-samples")

// DefaultCapacity - ceiling on the total container size
//
// deliberately oversized: a run that exhausts it fails its commit and
// aborts, so the default leaves ample headroom for a full corpus
const DefaultCapacity = int64(10 * 1024 * 1024 * 1024) // 10 GiB

// holds the database handle
var poolData struct {
	sync.RWMutex
	db       *leveldb.DB
	batch    *leveldb.Batch
	access   Access
	capacity int64
	used     int64
	readOnly bool
}

// pool access modes
const (
	ReadOnly  = true
	ReadWrite = false
)

// Initialise - open up the database connection
//
// this must be called before any pool is accessed
func Initialise(database string, capacity int64, readOnly bool) error {
	poolData.Lock()
	defer poolData.Unlock()

	ok := false

	if nil != poolData.db {
		return fault.ErrAlreadyInitialised
	}

	defer func() {
		if !ok {
			dbClose()
		}
	}()

	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	db, err := getDB(database, readOnly)
	if nil != err {
		return err
	}
	poolData.db = db
	poolData.capacity = capacity
	poolData.readOnly = readOnly

	// refuse to extend a finished dataset: records are never updated
	// in place, so a second run over the same destination would
	// silently overwrite colliding indexes
	if !readOnly {
		has, err := db.Has(NumSamplesKey, nil)
		if nil != err {
			return err
		}
		if has {
			return fault.ErrStoreAlreadyPopulated
		}
	}

	// base the remaining-capacity accounting on current disk usage;
	// an unreadable size would silently disable the ceiling
	sizes, err := db.SizeOf([]ldb_util.Range{{Start: nil, Limit: nil}})
	if nil != err {
		return err
	}
	poolData.used = sizes.Sum()

	poolData.batch = new(leveldb.Batch)
	poolData.access = newDA(db, poolData.batch)

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// scan each field
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)

		prefixTag, tagged := fieldInfo.Tag.Lookup("prefix")
		if !tagged {
			return fmt.Errorf("pool: %v has no prefix tag: %v", fieldInfo.Name, fault.ErrInvalidPoolPrefix)
		}

		p := &PoolHandle{
			prefix:     []byte(prefixTag),
			limit:      prefixLimit(prefixTag),
			dataAccess: poolData.access,
		}

		poolValue.Field(i).Set(reflect.ValueOf(p))
	}

	ok = true // prevent db close
	return nil
}

// upper bound for iterating all keys of one prefix
func prefixLimit(prefix string) []byte {
	if 0 == len(prefix) {
		return nil
	}
	limit := []byte(prefix)
	limit[len(limit)-1] += 1
	return limit
}

func dbClose() {
	if nil != poolData.db {
		poolData.db.Close()
		poolData.db = nil
	}
	poolData.batch = nil
	poolData.access = nil
	poolData.used = 0
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	dbClose()
	poolData.Unlock()
}

// IndexKey - fixed-width key form of a record index
//
// zero padded to 9 digits so keys order the same as their indexes
func IndexKey(n uint64) []byte {
	return []byte(fmt.Sprintf("%09d", n))
}

func getDB(name string, readOnly bool) (*leveldb.DB, error) {
	opt := &ldb_opt.Options{
		ErrorIfExist:   false,
		ErrorIfMissing: readOnly,
		ReadOnly:       readOnly,
	}
	return leveldb.OpenFile(name, opt)
}
