// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Command likeidx-bench is a developer CLI: it loads a newline-delimited
// text corpus into a single-column index, runs one LIKE/ILIKE pattern
// against it, and prints the planner tier, timing, and result count. It is
// ambient tooling for exercising the engine by hand, not a host
// integration.
package main

import (
	"bufio"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/erigontech/likeidx/internal/engine"
	"github.com/erigontech/likeidx/internal/planner"
	"github.com/erigontech/likeidx/internal/store"
)

var (
	corpusPath string
	pattern    string
	ilike      bool
	ordered    bool
)

func main() {
	root := &cobra.Command{
		Use:   "likeidx-bench",
		Short: "Build an in-memory LIKE index over a text corpus and time a query against it",
		RunE:  run,
	}
	root.Flags().StringVarP(&corpusPath, "corpus", "c", "", "path to a newline-delimited text corpus (required)")
	root.Flags().StringVarP(&pattern, "pattern", "p", "", "LIKE/ILIKE pattern to run (required)")
	root.Flags().BoolVar(&ilike, "ilike", false, "match case-insensitively (ILIKE instead of LIKE)")
	root.Flags().BoolVar(&ordered, "ordered", false, "sort results for a sequential-scan-style output")
	root.MarkFlagRequired("corpus")
	root.MarkFlagRequired("pattern")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "likeidx-bench:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	f, err := os.Open(corpusPath)
	if err != nil {
		return fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	eng, err := engine.Open(engine.Config{}, 1)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}

	buildStart := time.Now()
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var block uint64
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		if _, err := eng.Insert(store.ExternalRef{Block: block, Offset: 0}, []string{line}); err != nil {
			return fmt.Errorf("insert line %d: %w", block, err)
		}
		block++
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan corpus: %w", err)
	}
	buildElapsed := time.Since(buildStart)

	mode := planner.LIKE
	if ilike {
		mode = planner.ILike
	}

	preds := []planner.Predicate{{Column: 0, Pattern: pattern, Mode: mode}}
	plan, err := planner.Plan(preds)
	if err != nil {
		return fmt.Errorf("plan query: %w", err)
	}

	queryStart := time.Now()
	var refs []store.ExternalRef
	if ordered {
		refs, err = eng.QueryOrdered(preds, nil)
	} else {
		refs, err = eng.Query(preds, nil)
	}
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}
	queryElapsed := time.Since(queryStart)

	stats := eng.Stats()

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRow(table.Row{"corpus rows", stats.LiveCount})
	t.AppendRow(table.Row{"build time", buildElapsed})
	t.AppendRow(table.Row{"planner tier", plan[0].Tier})
	t.AppendRow(table.Row{"planner score", fmt.Sprintf("%.3f", plan[0].Score)})
	t.AppendRow(table.Row{"query time", queryElapsed})
	t.AppendRow(table.Row{"result count", len(refs)})
	t.Render()
	return nil
}
