// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// error instances
//
// Provides a single instance of errors to allow easy comparison
package fault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised        = ProcessError("already initialised")
	ErrAnnotationFileCorrupt     = ProcessError("annotation file is corrupt")
	ErrAnnotationKeyNotFound     = NotFoundError("annotation key is not found")
	ErrBatchAlreadyInUse         = ProcessError("batch already in use")
	ErrConfigurationIsNotATable  = InvalidError("configuration is not a table")
	ErrInvalidLoggerChannel      = InvalidError("invalid logger channel")
	ErrInvalidPoolPrefix         = InvalidError("invalid pool prefix")
	ErrManifestColumnMissing     = InvalidError("required manifest column is missing")
	ErrNotInitialised            = ProcessError("not initialised")
	ErrStoreAlreadyPopulated     = ExistsError("store already contains a finished dataset")
	ErrStoreCapacityExceeded     = ProcessError("store capacity exceeded")
	ErrStoreIsReadOnly           = InvalidError("store is read only")
	ErrUnknownLexiconColumn      = InvalidError("unknown lexicon column")
	ErrUnsupportedAnnotationData = ProcessError("unsupported annotation data")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
