// Command gridcalc applies a batch of edits to a document and prints the
// evaluated grid.
//
//	gridcalc -in budget.json -out budget.xlsx A1=10 'B1==A1*2' insert-row:1 sort-desc:A
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/vogtb/go-spreadsheet/packages/gridcalc"
	"github.com/vogtb/go-spreadsheet/packages/gridcalc/persist"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("gridcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "YAML config file")
	inPath := fs.String("in", "", "document to load (.json, .yaml, .xlsx)")
	outPath := fs.String("out", "", "file to save the document to (.json, .yaml, .xlsx)")
	rows := fs.Int("rows", 0, "rows of a new document (default from config)")
	cols := fs.Int("cols", 0, "columns of a new document (default from config)")
	verbose := fs.Bool("v", false, "log debug events")

	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg := gridcalc.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = gridcalc.LoadConfigFile(*configPath); err != nil {
			fmt.Fprintf(stderr, "loading config: %v\n", err)
			return 1
		}
	}
	level, _ := cfg.Level()
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: stderr}).Level(level).With().Timestamp().Logger()

	opts := []gridcalc.Option{gridcalc.WithConfig(cfg), gridcalc.WithLogger(log)}
	doc, err := openDocument(*inPath, *rows, *cols, cfg, opts)
	if err != nil {
		log.Error().Err(err).Str("path", *inPath).Msg("cannot open document")
		return 1
	}

	session := gridcalc.NewSession(doc, log)
	ctx := context.Background()
	for _, command := range fs.Args() {
		if err := apply(ctx, session, command); err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", command, err)
		}
	}

	if err := session.Do(ctx, func(d *gridcalc.Document) error {
		return printDocument(stdout, d)
	}); err != nil {
		fmt.Fprintf(stderr, "printing: %v\n", err)
		return 1
	}

	if *outPath != "" {
		if err := persist.WriteFile(*outPath, doc); err != nil {
			log.Error().Err(err).Str("path", *outPath).Msg("cannot save document")
			return 1
		}
		log.Info().Str("path", *outPath).Msg("saved document")
	}
	return 0
}

const usageText = `Usage:

  gridcalc [-config FILE] [-in FILE] [-out FILE] [-rows N] [-cols N] [-v] [command ...]

commands:

  A1=<input>      set a cell; a leading '=' after the first one makes a formula (B1==A1*2)
  A1=             clear a cell
  insert-row:N    insert an empty row before row N
  insert-col:C    insert an empty column before column C
  remove-row:N    remove row N
  remove-col:C    remove column C
  sort-asc:C      sort rows by column C, smallest first
  sort-desc:C     sort rows by column C, largest first
`

func openDocument(path string, rows, cols int, cfg gridcalc.Config, opts []gridcalc.Option) (*gridcalc.Document, error) {
	if path != "" {
		return persist.ReadFile(path, opts...)
	}
	if rows <= 0 {
		rows = cfg.Rows
	}
	if cols <= 0 {
		cols = cfg.Columns
	}
	return gridcalc.NewDocument(rows, cols, opts...)
}

// apply runs one command line argument against the session
func apply(ctx context.Context, s *gridcalc.Session, command string) error {
	if name, arg, ok := strings.Cut(command, ":"); ok && !strings.Contains(name, "=") {
		return s.Do(ctx, func(d *gridcalc.Document) error {
			return structural(d, name, arg)
		})
	}

	address, text, ok := strings.Cut(command, "=")
	if !ok {
		return fmt.Errorf("unknown command")
	}
	ref, err := gridcalc.ParseCellRef(address)
	if err != nil {
		return err
	}
	_, err = s.SetValue(ctx, ref, gridcalc.TextInput(text))
	return err
}

func structural(d *gridcalc.Document, name, arg string) error {
	switch name {
	case "insert-row", "remove-row":
		row, err := strconv.Atoi(arg)
		if err != nil || row < 1 {
			return fmt.Errorf("invalid row %q", arg)
		}
		if name == "insert-row" {
			return d.InsertRowBefore(row - 1)
		}
		return d.RemoveRow(row - 1)
	}

	col, err := gridcalc.ColumnIndex(strings.ToUpper(arg))
	if err != nil {
		return err
	}
	switch name {
	case "insert-col":
		return d.InsertColumnBefore(col)
	case "remove-col":
		return d.RemoveColumn(col)
	case "sort-asc":
		return d.SortAscending(col)
	case "sort-desc":
		return d.SortDescending(col)
	}
	return fmt.Errorf("unknown command %q", name)
}

// printDocument writes the displayed grid as a tab-separated table followed
// by the error of every failed formula
func printDocument(w io.Writer, d *gridcalc.Document) error {
	header := []string{""}
	for col := 0; col < d.ColumnCount(); col++ {
		header = append(header, gridcalc.ColumnName(col))
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, "\t")); err != nil {
		return err
	}

	var failed []string
	for row := 0; row < d.RowCount(); row++ {
		line := []string{strconv.Itoa(row + 1)}
		for col := 0; col < d.ColumnCount(); col++ {
			ref := gridcalc.CellRef{Row: row, Col: col}
			switch v := d.DisplayValue(ref); {
			case v != nil:
				line = append(line, v.String())
			case d.CellError(ref) != "":
				line = append(line, "#ERROR")
				failed = append(failed, fmt.Sprintf("%s: %s", ref, d.CellError(ref)))
			default:
				line = append(line, "")
			}
		}
		if _, err := fmt.Fprintln(w, strings.Join(line, "\t")); err != nil {
			return err
		}
	}

	for _, msg := range failed {
		if _, err := fmt.Fprintln(w, msg); err != nil {
			return err
		}
	}
	return nil
}
