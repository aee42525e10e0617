package clinical

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads every CSV file in dir and concatenates them into one table.
// Column order follows the first file; columns introduced by later files
// are appended, and rows from files missing a column get missing cells.
// An unreadable directory or an unparsable file fails the whole load;
// there is no partial-result mode.
func Load(dir string) (*Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	table := NewTable(nil)
	for _, name := range files {
		if err := loadFile(table, filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func loadFile(table *Table, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read header of %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	// Union of columns, preserving first-seen order.
	for _, col := range header {
		if !table.HasColumn(col) {
			table.Columns = append(table.Columns, col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(record) {
				break
			}
			row[col] = ParseValue(record[i])
		}
		table.Rows = append(table.Rows, row)
	}

	return nil
}
