/*
 * main.go, part of evscan.
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

// Command evscan computes the energy vs. volume curve of a crystal, as described
// by an HCL job file, and writes it, with the rest of the results, as property
// instances.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rmera/evscan/config"
	"github.com/rmera/evscan/ctxlog"
	"github.com/rmera/evscan/driver"
	"github.com/rmera/evscan/property"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	stop()
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run does the work of main. The table of samples goes to outW, the logs to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	opts, shouldExit, err := parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	settings, err := config.LoadSettings(opts.Settings)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	if opts.LogLevel != "" {
		settings.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		settings.LogFormat = opts.LogFormat
	}
	if err := settings.Validate(); err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	logger := newLogger(settings.LogLevel, settings.LogFormat, errW)
	ctx = ctxlog.WithLogger(ctx, logger)

	job, err := config.LoadJob(opts.JobPath)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	C, err := job.Crystal()
	if err != nil {
		return err
	}
	calculator, err := job.NewCalculator(settings)
	if err != nil {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	out := job.OutputOptions()
	switch {
	case opts.OutputDir != "":
		out.Dir = opts.OutputDir
	case settings.OutputDir != "":
		out.Dir = settings.OutputDir
	}
	if opts.Results != "" {
		out.Results = opts.Results
	}
	logger.Info("Starting scan", "job", opts.JobPath, "formula", C.Formula(), "atoms", C.Len(),
		"calculator", calculator.Name(), "output", out.Dir)

	D := driver.New(calculator, out.Dir)
	D.Trajectory = out.Trajectory
	D.Plot = out.Plot
	D.WriteNPT = out.NPT
	instances, err := D.Run(ctx, C, job.Params())
	if err != nil {
		return err
	}
	if err := D.WriteResults(filepath.Join(out.Dir, out.Results)); err != nil {
		return err
	}
	logger.Info("Results written", "file", filepath.Join(out.Dir, out.Results), "instances", len(instances))
	if !opts.Quiet {
		printSamples(outW, instances[len(instances)-1])
	}
	return nil
}

// printSamples prints one line per sample of the energy-vs-volume instance ev.
func printSamples(outW io.Writer, ev *property.Instance) {
	vols := sourceValue(ev, "volume-per-atom")
	ens := sourceValue(ev, "binding-potential-energy-per-atom")
	if ev.Disclaimer != "" {
		fmt.Fprintf(outW, "# %s\n", ev.Disclaimer)
	}
	fmt.Fprintf(outW, "# %14s %16s\n", "V/atom (A^3)", "E/atom (eV)")
	for i := range vols {
		if i >= len(ens) {
			break
		}
		fmt.Fprintf(outW, "  %14.6f %16.8f\n", vols[i], ens[i])
	}
}

func sourceValue(I *property.Instance, key string) []float64 {
	v, ok := I.Get(key)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	f, _ := m["source-value"].([]float64)
	return f
}
