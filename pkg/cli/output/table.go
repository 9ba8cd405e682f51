package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/fatih/color"
)

// Table 对齐的列表输出，表头青色加粗
// 列宽按终端显示宽度计算，中日韩全角字符按两格算，中文单元格不会错位
type Table struct {
	columns []string
	rows    [][]string
}

// NewTable 创建表格
func NewTable(columns ...string) *Table {
	return &Table{columns: columns}
}

// AddRow 添加一行；少于列数的行右侧补空，多出的列截断
func (t *Table) AddRow(cells ...string) {
	for len(cells) < len(t.columns) {
		cells = append(cells, "")
	}
	t.rows = append(t.rows, cells[:len(t.columns)])
}

// Render 渲染到标准输出
func (t *Table) Render() {
	t.RenderTo(os.Stdout)
}

// RenderTo 渲染到指定writer
func (t *Table) RenderTo(w io.Writer) {
	widths := make([]int, len(t.columns))
	for i, c := range t.columns {
		widths[i] = displayWidth(c)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if dw := displayWidth(cell); dw > widths[i] {
				widths[i] = dw
			}
		}
	}

	header := color.New(color.FgCyan, color.Bold)
	for i, c := range t.columns {
		header.Fprint(w, pad(c, widths[i]))
		fmt.Fprint(w, "  ")
	}
	fmt.Fprintln(w)

	for _, width := range widths {
		fmt.Fprint(w, strings.Repeat("-", width))
		fmt.Fprint(w, "  ")
	}
	fmt.Fprintln(w)

	for _, row := range t.rows {
		for i, cell := range row {
			fmt.Fprint(w, pad(cell, widths[i]))
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintln(w)
	}
}

// displayWidth 终端显示宽度；CJK与全角字符计2格
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if isWide(r) {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func isWide(r rune) bool {
	if unicode.Is(unicode.Han, r) {
		return true
	}
	// CJK标点与全角区
	return (r >= 0x3000 && r <= 0x303f) || (r >= 0xff00 && r <= 0xff60)
}

func pad(s string, width int) string {
	gap := width - displayWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}
