package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/C-Sto/goesedb/pkg/esent"
	"github.com/C-Sto/goesedb/pkg/export"
	"github.com/C-Sto/goesedb/pkg/logger"
	"github.com/C-Sto/goesedb/pkg/tablereader"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//Settings are the command line options shared by every command
type Settings struct {
	Files      []string
	Table      string
	Out        string
	Limit      int
	Verbose    bool
	Mmap       bool
	InMemory   bool
	NoChecksum bool
	OleTime    bool
}

func (s Settings) options() *esent.Options {
	return &esent.Options{Mmap: s.Mmap, InMemory: s.InMemory, SkipChecksums: s.NoChecksum}
}

func (s Settings) format() esent.FormatOptions {
	return esent.FormatOptions{OleTime: s.OleTime}
}

//Info lists the tables and columns of every file. Files are opened concurrently, each with its
//own handle, and reported in the order given.
func Info(s Settings, w io.Writer) error {
	reports := make([]string, len(s.Files))
	var g errgroup.Group
	for i, f := range s.Files {
		i, f := i, f
		g.Go(func() error {
			r, err := describe(f, s.options())
			if err != nil {
				reports[i] = fileStyle.Render(f) + "\n" + errorStyle.Render("  "+err.Error()) + "\n"
				return fmt.Errorf("%s: %w", f, err)
			}
			reports[i] = r
			return nil
		})
	}
	err := g.Wait()
	for _, r := range reports {
		fmt.Fprint(w, r)
	}
	return err
}

func describe(path string, o *esent.Options) (string, error) {
	db, err := esent.Open(path, o)
	if err != nil {
		return "", err
	}
	defer db.Close()

	var sb strings.Builder
	sb.WriteString(fileStyle.Render(path) + "\n")
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %s, %d pages, %d tables", db.Header(), db.PageCount(), db.TableCount())) + "\n")
	tables := db.Tables()
	for tables.Next() {
		t := tables.Value()
		n, err := t.RecordCount()
		if err != nil {
			return "", fmt.Errorf("table %s: %w", t.Name(), err)
		}
		line := tableStyle.Render(t.Name()) + labelStyle.Render(fmt.Sprintf(" objid %d, root %d, %d records", t.ObjectID(), t.RootPage(), n))
		if t.TemplateName() != "" {
			line += labelStyle.Render(", template " + t.TemplateName())
		}
		sb.WriteString(line + "\n")
		cols := t.Columns()
		for cols.Next() {
			c := cols.Value()
			sb.WriteString(columnStyle.Render(fmt.Sprintf("%-5d %-14s %s", c.ID(), c.Type(), c.Name())) + "\n")
		}
	}
	if err := tables.Err(); err != nil {
		return "", err
	}
	logger.Logger.Debug("described database", zap.String("file", path), zap.Any("cache", db.CacheStats()))
	return sb.String(), nil
}

//Dump prints every record of the table as key=value pairs, one record per line
func Dump(ctx context.Context, s Settings, w io.Writer) error {
	return readTable(ctx, s, func(rows <-chan tablereader.DumpedRow) error {
		return consoleWriter(rows, w)
	})
}

//Export writes the table as JSON lines to s.Out
func Export(ctx context.Context, s Settings) error {
	if s.Out == "" {
		return fmt.Errorf("no output file")
	}
	return readTable(ctx, s, func(rows <-chan tablereader.DumpedRow) error {
		return fileStreamWriter(rows, s)
	})
}

func readTable(ctx context.Context, s Settings, write func(<-chan tablereader.DumpedRow) error) error {
	if len(s.Files) != 1 {
		return fmt.Errorf("expected one database file, got %d", len(s.Files))
	}
	db, err := esent.Open(s.Files[0], s.options())
	if err != nil {
		return err
	}
	defer db.Close()

	//the reader has to be stopped if the writer gives up early
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	tr, err := tablereader.New(ctx, db, s.Table, tablereader.Settings{Limit: s.Limit, Format: s.format()})
	if err != nil {
		return err
	}
	if err := write(tr.GetOutChan()); err != nil {
		cancel()
		for range tr.GetOutChan() {
		}
		return err
	}
	return tr.Err()
}

func consoleWriter(rows <-chan tablereader.DumpedRow, w io.Writer) error {
	for row := range rows {
		if _, err := fmt.Fprintln(w, export.Line(row.Doc)); err != nil {
			return err
		}
	}
	return nil
}

func fileStreamWriter(rows <-chan tablereader.DumpedRow, s Settings) error {
	file, err := os.OpenFile(s.Out, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()
	jw := export.NewJSONWriter(file)
	for row := range rows {
		if err := jw.Write(row.Doc); err != nil {
			return err
		}
	}
	if err := jw.Flush(); err != nil {
		return err
	}
	logger.Logger.Info("exported table", zap.String("table", s.Table), zap.Int("rows", jw.Count()), zap.String("file", s.Out))
	return file.Close()
}
