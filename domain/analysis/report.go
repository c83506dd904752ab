package analysis

import (
	"io"
	"os"
)

// SaveReport writes the analysis report to the file at path, replacing any
// existing file. With writeConsole the report is additionally echoed to
// standard output. The file is closed on every outcome, and a close failure
// after a clean write is reported.
func SaveReport(a Analysis, path string, writeConsole bool) error {
	var console io.Writer
	if writeConsole {
		console = os.Stdout
	}
	return saveReport(a, path, console)
}

func saveReport(a Analysis, path string, console io.Writer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	sink := io.Writer(file)
	if console != nil {
		sink = io.MultiWriter(file, console)
	}
	writeErr := a.WriteReport(sink)
	closeErr := file.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
