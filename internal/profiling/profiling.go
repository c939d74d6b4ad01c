// Package profiling exports the recorder's per-task and per-worker statistics
// when a run ends.
package profiling

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/utkarsh5026/fibload/internal/observe"
)

// Source is what gets exported; *observe.Recorder satisfies it.
type Source interface {
	FuncStats() []observe.FuncStat
	ThreadStats() []observe.ThreadStat
}

var (
	funcHeader   = []string{"name", "calls", "errors", "total_secs", "mean_secs", "max_secs"}
	threadHeader = []string{"pool", "worker", "tasks", "busy_secs", "first", "last"}
)

// Files names the two files written by Export.
type Files struct {
	Functions string
	Threads   string
}

// Export writes stats_functions_<millis>.csv and stats_threads_<millis>.csv into dir,
// where millis is now in Unix milliseconds. Existing files are never overwritten.
func Export(dir string, src Source, now time.Time) (Files, error) {
	millis := now.UnixMilli()
	files := Files{
		Functions: filepath.Join(dir, fmt.Sprintf("stats_functions_%d.csv", millis)),
		Threads:   filepath.Join(dir, fmt.Sprintf("stats_threads_%d.csv", millis)),
	}

	if err := writeCSV(files.Functions, funcHeader, funcRows(src.FuncStats())); err != nil {
		return files, err
	}
	if err := writeCSV(files.Threads, threadHeader, threadRows(src.ThreadStats())); err != nil {
		return files, err
	}
	return files, nil
}

func writeCSV(path string, header []string, rows [][]string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func funcRows(stats []observe.FuncStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Name,
			strconv.FormatInt(s.Calls, 10),
			strconv.FormatInt(s.Errors, 10),
			seconds(s.Total),
			seconds(s.Mean()),
			seconds(s.Max),
		})
	}
	return rows
}

func threadRows(stats []observe.ThreadStat) [][]string {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Pool,
			strconv.FormatInt(s.Worker, 10),
			strconv.FormatInt(s.Tasks, 10),
			seconds(s.Busy),
			s.First.Format(time.RFC3339Nano),
			s.Last.Format(time.RFC3339Nano),
		})
	}
	return rows
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 6, 64)
}

// Render prints both statistics tables to w.
func Render(w io.Writer, src Source) error {
	bold := color.New(color.Bold)

	_, _ = bold.Fprintln(w, "Task statistics")
	funcs := tablewriter.NewWriter(w)
	funcs.Header("Task", "Calls", "Errors", "Total", "Mean", "Max")
	for _, s := range src.FuncStats() {
		_ = funcs.Append(
			s.Name,
			strconv.FormatInt(s.Calls, 10),
			strconv.FormatInt(s.Errors, 10),
			formatDuration(s.Total),
			formatDuration(s.Mean()),
			formatDuration(s.Max),
		)
	}
	if err := funcs.Render(); err != nil {
		return err
	}

	_, _ = fmt.Fprintln(w)
	_, _ = bold.Fprintln(w, "Worker statistics")
	threads := tablewriter.NewWriter(w)
	threads.Header("Pool", "Worker", "Tasks", "Busy")
	for _, s := range src.ThreadStats() {
		worker := strconv.FormatInt(s.Worker, 10)
		if s.Worker < 0 {
			worker = "-"
		}
		_ = threads.Append(s.Pool, worker, strconv.FormatInt(s.Tasks, 10), formatDuration(s.Busy))
	}
	return threads.Render()
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}
