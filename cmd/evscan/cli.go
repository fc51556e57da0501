/*
 * cli.go, part of evscan.
 *
 * Copyright 2024 The evscan Authors
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as
 * published by the Free Software Foundation; either version 2.1 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General
 * Public License along with this program.  If not, see
 * <http://www.gnu.org/licenses/>.
 *
 */

package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
)

// ExitError is an error that carries the exit code for the program.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

// options are the command line options.
type options struct {
	JobPath   string
	Settings  string
	LogLevel  string
	LogFormat string
	OutputDir string
	Results   string
	Quiet     bool
}

// parse processes the command line arguments. It returns the options, whether the
// program should exit without running anything, or an ExitError.
func parse(args []string, output io.Writer) (*options, bool, error) {
	flagSet := flag.NewFlagSet("evscan", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, `
evscan - energy vs. volume curves for crystals.

Usage:
  evscan [options] JOB.hcl

Arguments:
  JOB.hcl
    Path to the job file, with the structure, calculator, scan and output blocks.

Options:
`)
		flagSet.PrintDefaults()
	}
	o := new(options)
	flagSet.StringVar(&o.Settings, "settings", "", "Settings file (yaml, toml or json). EVSCAN_* environment variables override it.")
	flagSet.StringVar(&o.LogLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Overrides the settings.")
	flagSet.StringVar(&o.LogFormat, "log-format", "", "Log format: 'text' or 'json'. Overrides the settings.")
	flagSet.StringVar(&o.OutputDir, "o", "", "Output directory. Overrides the settings and the job.")
	flagSet.StringVar(&o.Results, "results", "", "Name of the results file in the output directory. A .json extension gives JSON, anything else EDN.")
	flagSet.BoolVar(&o.Quiet, "q", false, "Don't print the table of samples.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "only one job file can be given"}
	}
	o.JobPath = flagSet.Arg(0)
	o.LogLevel = strings.ToLower(o.LogLevel)
	o.LogFormat = strings.ToLower(o.LogFormat)
	return o, false, nil
}
