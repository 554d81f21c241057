// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/textmine/corpusdb/configuration"
	"github.com/textmine/corpusdb/fault"
	"github.com/textmine/corpusdb/ingest"
	"github.com/textmine/corpusdb/manifest"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

// where ImgName cells resolve relative to unless told otherwise
const defaultImagePrefix = "datasets/IIIT5K"

// optional Lua configuration file layout; command line flags override
// anything set here
type ingestConfiguration struct {
	OutputPath  string               `gluamapper:"output_path"`
	Manifest    string               `gluamapper:"manifest"`
	ImagePrefix string               `gluamapper:"image_prefix"`
	CheckValid  bool                 `gluamapper:"check_valid"`
	Capacity    int64                `gluamapper:"capacity"`
	BatchSize   int                  `gluamapper:"batch_size"`
	Lexicon     string               `gluamapper:"lexicon"`
	Logging     logger.Configuration `gluamapper:"logging"`
}

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "verbose", HasArg: getoptions.NO_ARGUMENT, Short: 'v'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "no-check", HasArg: getoptions.NO_ARGUMENT, Short: 'n'},
		{Long: "config", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
		{Long: "output", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'o'},
		{Long: "manifest", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'm'},
		{Long: "prefix", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'p'},
		{Long: "lexicon", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'l'},
		{Long: "capacity", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 's'},
		{Long: "batch-size", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'b'},
	}

	program, options, _, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		exitwithstatus.Message("%s: version: %s", program, version)
	}

	// defaults
	config := &ingestConfiguration{
		ImagePrefix: defaultImagePrefix,
		CheckValid:  true,
		Lexicon:     ingest.LexiconSmall,
		Logging: logger.Configuration{
			Directory: ".",
			File:      "corpusdb-ingest.log",
			Size:      1048576,
			Count:     10,
			Console:   true,
			Levels: map[string]string{
				logger.DefaultTag: "info",
			},
		},
	}

	if len(options["config"]) > 0 {
		err = configuration.ParseConfigurationFile(options["config"][0], config)
		if nil != err {
			exitwithstatus.Message("%s: configuration error: %s", program, err)
		}
	}

	if len(options["output"]) > 0 {
		config.OutputPath = options["output"][0]
	}
	if len(options["manifest"]) > 0 {
		config.Manifest = options["manifest"][0]
	}
	if len(options["prefix"]) > 0 {
		config.ImagePrefix = options["prefix"][0]
	}
	if len(options["lexicon"]) > 0 {
		config.Lexicon = options["lexicon"][0]
	}
	if len(options["no-check"]) > 0 {
		config.CheckValid = false
	}
	if len(options["capacity"]) > 0 {
		config.Capacity, err = strconv.ParseInt(options["capacity"][0], 10, 64)
		if nil != err {
			exitwithstatus.Message("%s: convert capacity error: %s", program, err)
		}
	}
	if len(options["batch-size"]) > 0 {
		config.BatchSize, err = strconv.Atoi(options["batch-size"][0])
		if nil != err {
			exitwithstatus.Message("%s: convert batch-size error: %s", program, err)
		}
	}

	if len(options["verbose"]) > 0 {
		config.Logging.Levels[logger.DefaultTag] = "debug"
	}

	if len(options["help"]) > 0 || "" == config.OutputPath || "" == config.Manifest {
		exitwithstatus.Message("usage: %s [--help] [--verbose] [--config=FILE] --output=FILE --manifest=FILE [--prefix=DIR] [--lexicon=small|medium|none] [--no-check] [--capacity=BYTES] [--batch-size=N]", program)
	}

	// start logging
	if err = logger.Initialise(config.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	// setup fault log channel
	if err = fault.Initialise(); nil != err {
		exitwithstatus.Message("%s: fault initialise failed with error: %s", program, err)
	}
	defer fault.Finalise()

	log := logger.New("ingest")

	m, err := manifest.Load(config.Manifest, config.ImagePrefix)
	if nil != err {
		exitwithstatus.Message("%s: manifest load failed with error: %s", program, err)
	}
	log.Infof("loaded %d rows from %s", m.Count(), config.Manifest)

	count, err := ingest.Run(log, ingest.Options{
		OutputPath: config.OutputPath,
		CheckValid: config.CheckValid,
		Capacity:   config.Capacity,
		BatchSize:  config.BatchSize,
		Lexicon:    config.Lexicon,
	}, m)
	if nil != err {
		exitwithstatus.Message("%s: ingest failed with error: %s", program, err)
	}

	fmt.Printf("created dataset with %d samples\n", count)
}
