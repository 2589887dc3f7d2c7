package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"

	"github.com/diskfs/go-disktables/row"
)

var (
	partitionColumns = []string{"device", "partition", "type", "label", "flags", "offset", "blocks_size", "blocks", "inodes"}
	fileColumns      = []string{"device", "partition", "inode", "type", "mode", "uid", "gid", "hard_links", "size", "mtime", "path"}
)

func write(w io.Writer, format string, res row.Results, columns []string) error {
	switch format {
	case "json":
		return writeJSON(w, res)
	case "yaml":
		return writeYAML(w, res)
	case "table":
		return writeTable(w, res, columns)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// writeJSON writes one object per line
func writeJSON(w io.Writer, res row.Results) error {
	for _, r := range res {
		b, err := sonic.ConfigStd.Marshal(map[string]string(r))
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s\n", b); err != nil {
			return err
		}
	}
	return nil
}

func writeYAML(w io.Writer, res row.Results) error {
	if len(res) == 0 {
		return nil
	}
	rows := make([]map[string]string, len(res))
	for i, r := range res {
		rows[i] = r
	}
	b, err := yaml.Marshal(rows)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// writeTable aligns the columns present in res, preferred ones first. Byte sizes are
// humanized.
func writeTable(w io.Writer, res row.Results, preferred []string) error {
	if len(res) == 0 {
		return nil
	}
	cols := res.Columns(preferred...)
	cells := make([][]string, 0, len(res)+1)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = strings.ToUpper(c)
	}
	cells = append(cells, header)
	for _, r := range res {
		line := make([]string, len(cols))
		for i, c := range cols {
			line[i] = cell(r, c)
		}
		cells = append(cells, line)
	}

	widths := make([]int, len(cols))
	for _, line := range cells {
		for i, v := range line {
			if len(v) > widths[i] {
				widths[i] = len(v)
			}
		}
	}
	for _, line := range cells {
		var b strings.Builder
		for i, v := range line {
			if i == len(line)-1 {
				b.WriteString(v)
				break
			}
			fmt.Fprintf(&b, "%-*s  ", widths[i], v)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(b.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

func cell(r row.Row, column string) string {
	v, ok := r[column]
	if !ok {
		return "-"
	}
	switch column {
	case "size", "offset":
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return humanize.IBytes(n)
		}
	}
	return v
}
