package tablereader

import (
	"context"
	"fmt"

	"github.com/C-Sto/goesedb/pkg/esent"
	"github.com/C-Sto/goesedb/pkg/export"
	"github.com/C-Sto/goesedb/pkg/logger"
	"github.com/Velocidex/ordereddict"
	"go.uber.org/zap"
)

//DumpedRow is one decoded record of the table being read
type DumpedRow struct {
	Ordinal int
	Key     []byte
	Doc     *ordereddict.Dict
}

//Settings controls what the reader produces
type Settings struct {
	//Limit stops after this many rows, 0 reads everything
	Limit  int
	Format esent.FormatOptions
}

//TableReader decodes every record of a table in the background and hands them out over a channel
type TableReader struct {
	table    *esent.Table
	settings Settings
	rows     chan DumpedRow
	err      error
	log      *zap.Logger
}

//New starts reading the named table straight away, rows arrive on GetOutChan as they are decoded.
//Cancelling ctx stops the reader early.
func New(ctx context.Context, db *esent.Database, table string, s Settings) (*TableReader, error) {
	t, err := db.TableByName(table)
	if err != nil {
		return nil, err
	}
	r := &TableReader{
		table:    t,
		settings: s,
		rows:     make(chan DumpedRow, 500),
		log:      logger.Logger.With(zap.String("table", table)),
	}
	go r.run(ctx) //output goes into the channel as it comes

	return r, nil
}

//GetOutChan returns the output channel for read only operations. It is closed once the table is done.
func (r *TableReader) GetOutChan() <-chan DumpedRow {
	return r.rows
}

//Err is the error that stopped the reader. Only valid after the output channel is closed.
func (r *TableReader) Err() error {
	return r.err
}

//Table being read
func (r *TableReader) Table() *esent.Table {
	return r.table
}

func (r *TableReader) run(ctx context.Context) {
	defer close(r.rows)
	r.err = r.dump(ctx)
	if r.err != nil {
		r.log.Debug("table reader stopped", zap.Error(r.err))
	}
}

//dump walks the table and sends every record down the output channel. A record that fails to
//decode ends the dump rather than being skipped.
func (r *TableReader) dump(ctx context.Context) error {
	count := 0
	return r.table.Walk(func(rec *esent.Record) (bool, error) {
		if r.settings.Limit > 0 && count >= r.settings.Limit {
			return false, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		d, err := export.Record(rec, r.settings.Format)
		if err != nil {
			return false, fmt.Errorf("record %d: %w", rec.Ordinal(), err)
		}
		select {
		case r.rows <- DumpedRow{Ordinal: rec.Ordinal(), Key: rec.Key(), Doc: d}:
		case <-ctx.Done():
			return false, ctx.Err()
		}
		count++
		return true, nil
	})
}
