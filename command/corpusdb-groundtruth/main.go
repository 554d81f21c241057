// SPDX-License-Identifier: ISC
// Copyright (c) 2024-2026 Textmine Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/textmine/corpusdb/groundtruth"
)

// set by the linker: go build -ldflags "-X main.version=M.N" ./...
var version = "zero" // do not change this value

func main() {

	app := cli.NewApp()
	app.Name = "corpusdb-groundtruth"
	app.Usage = "extract character annotations from a MAT charBound file"
	app.Version = version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Commands = []cli.Command{
		{
			Name:      "show",
			Usage:     "print the annotation entries stored under a key",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "*annotation `FILE` (.mat)",
				},
				cli.StringFlag{
					Name:  "key, k",
					Value: "",
					Usage: "*structure key `NAME` [trainCharBound|testCharBound]",
				},
			},
			Action: runShow,
		},
		{
			Name:      "keys",
			Usage:     "list the structure keys present in an annotation file",
			ArgsUsage: "\n   (* = required)",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "file, f",
					Value: "",
					Usage: "*annotation `FILE` (.mat)",
				},
			},
			Action: runKeys,
		},
	}

	err := app.Run(os.Args)
	if nil != err {
		fmt.Fprintf(os.Stderr, "terminated with error: %s\n", err)
		os.Exit(1)
	}
}

func runShow(c *cli.Context) error {
	fileName := c.String("file")
	if "" == fileName {
		return fmt.Errorf("annotation file is required")
	}
	key := c.String("key")
	if "" == key {
		return fmt.Errorf("key is required")
	}

	f, err := groundtruth.Read(fileName)
	if nil != err {
		return err
	}

	entries, err := f.CharBounds(key)
	if nil != err {
		// a missing key is reported, not fatal; the caller gets no data
		fmt.Fprintf(c.App.Writer, "error: %q not found in %s\n", key, fileName)
		return nil
	}

	for _, e := range entries {
		fmt.Fprintf(c.App.Writer, "Image Name: %s\n", e.ImageName)
		fmt.Fprintf(c.App.Writer, "Characters: %s\n", e.Characters)
		fmt.Fprintf(c.App.Writer, "Bounding Boxes: %v\n", e.Boxes)
		fmt.Fprintln(c.App.Writer, strings.Repeat("-", 30))
	}
	return nil
}

func runKeys(c *cli.Context) error {
	fileName := c.String("file")
	if "" == fileName {
		return fmt.Errorf("annotation file is required")
	}

	f, err := groundtruth.Read(fileName)
	if nil != err {
		return err
	}

	for _, key := range f.Keys() {
		fmt.Fprintln(c.App.Writer, key)
	}
	return nil
}
