package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/C-Sto/goesedb/cmd"
	"github.com/C-Sto/goesedb/pkg/logger"
	"go.uber.org/zap"
)

func usage(w io.Writer) {
	fmt.Fprintf(w, "Usage: %s <info|dump|export> [options] file...\n", os.Args[0])
	fmt.Fprintln(w, "  info    list tables and columns")
	fmt.Fprintln(w, "  dump    print the records of a table (-table required)")
	fmt.Fprintln(w, "  export  write a table as JSON lines (-table and -out required)")
}

func main() {
	code := run(os.Args[1:], os.Stdout, os.Stderr)
	//os.Exit skips deferred calls, flush by hand
	logger.Logger.Sync()
	os.Exit(code)
}

//run executes one command and returns the process exit code
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		usage(stderr)
		return 1
	}
	command := args[0]

	s := cmd.Settings{}
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.BoolVar(&s.Verbose, "verbose", false, "Debug logging")
	fs.BoolVar(&s.Mmap, "mmap", false, "Memory map the database file")
	fs.BoolVar(&s.InMemory, "inmemory", false, "Read the whole database file into memory before parsing")
	fs.BoolVar(&s.NoChecksum, "nochecksum", false, "Don't verify header and page checksums")
	fs.StringVar(&s.Table, "table", "", "Table to read")
	fs.StringVar(&s.Out, "out", "", "Output file for export")
	fs.IntVar(&s.Limit, "limit", 0, "Stop after this many records (0 for all)")
	fs.BoolVar(&s.OleTime, "oletime", false, "Treat DateTime columns as OLE dates instead of FILETIME")
	fs.Usage = func() {
		usage(stderr)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	s.Files = fs.Args()
	logger.SetVerbose(s.Verbose)

	if len(s.Files) < 1 {
		fs.Usage()
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch command {
	case "info":
		err = cmd.Info(s, stdout)
	case "dump":
		if s.Table == "" {
			fs.Usage()
			return 1
		}
		err = cmd.Dump(ctx, s, stdout)
	case "export":
		if s.Table == "" || s.Out == "" {
			fs.Usage()
			return 1
		}
		err = cmd.Export(ctx, s)
	default:
		usage(stderr)
		return 1
	}
	if err != nil {
		logger.Logger.Error("command failed", zap.String("command", command), zap.Error(err))
		return 1
	}
	return 0
}
