// Command emis-export runs one query through a viewer controller, prints
// the first page and writes the CSV export into a directory.
//
//	emis-export -type attendance -date 2024-03-01 -out ./exports
//
// The data source is configured exactly like the server (DATA_SOURCE,
// DATABASE_URL, SQLITE_PATH, CONFIG_FILE, ...).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/emis-viewer/internal/application"
	"github.com/JonMunkholm/emis-viewer/internal/config"
	"github.com/JonMunkholm/emis-viewer/internal/logging"
	"github.com/JonMunkholm/emis-viewer/internal/viewer"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "emis-export:", err)
		os.Exit(1)
	}
}

type options struct {
	recordType string
	date       string
	outDir     string
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("emis-export", flag.ContinueOnError)
	var o options
	fs.StringVar(&o.recordType, "type", viewer.TypeStudents, "record type: "+strings.Join(viewer.RecordTypes, ", "))
	fs.StringVar(&o.date, "date", time.Now().UTC().Format(time.DateOnly), "date (YYYY-MM-DD)")
	fs.StringVar(&o.outDir, "out", ".", "directory to write the CSV into")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.recordType == "" {
		return o, errors.New("-type is required")
	}
	return o, nil
}

func run(args []string, stdout io.Writer) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := application.OpenSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer source.Close(context.Background())

	ctrl := application.ControllerFactory(cfg, source, logger)("cli")
	defer ctrl.Close()

	f, err := ctrl.SubmitQuery(viewer.QueryParameters{"type": opts.recordType, "date": opts.date})
	if err != nil {
		return err
	}
	if err := f.Wait(ctx); err != nil {
		return err
	}

	printView(stdout, ctrl.Snapshot())

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}
	var written string
	err = ctrl.ExportCSV(viewer.DownloaderFunc(func(name string, content []byte) error {
		written = filepath.Join(opts.outDir, name)
		return os.WriteFile(written, content, 0o644)
	}))
	if errors.Is(err, viewer.ErrNoData) {
		fmt.Fprintln(stdout, ctrl.Status().Message)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s: %s\n", ctrl.Status().Message, written)
	return nil
}

func printView(w io.Writer, v viewer.View) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(v.Table.Headers, "\t"))
	for _, row := range v.Table.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()

	if p := v.Pagination; p.Visible {
		fmt.Fprintf(w, "Showing %d to %d of %d entries (page %d of %d)\n",
			p.ShowingStart, p.ShowingEnd, p.Total, p.CurrentPage, p.TotalPages)
	}
}
