package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LENAX/tms-engine/pkg/core/model"
)

func renderLines(t *testing.T, table *Table) []string {
	t.Helper()
	color.NoColor = true
	var buf bytes.Buffer
	table.RenderTo(&buf)
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestTableAlignsWideRunes(t *testing.T) {
	table := NewTable("ID", "NAME")
	table.AddRow("1", "登录异常")
	table.AddRow("2", "ok")

	lines := renderLines(t, table)
	require.Len(t, lines, 4)

	// 中文按两格宽计算，各行同一列起始位置一致
	assert.Equal(t, strings.Index(lines[0], "NAME"), strings.Index(lines[2], "登录异常"))
	assert.Equal(t, strings.Index(lines[0], "NAME"), strings.Index(lines[3], "ok"))
}

func TestTablePadsShortRows(t *testing.T) {
	table := NewTable("A", "B", "C")
	table.AddRow("x")

	lines := renderLines(t, table)
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[2], "x"))
}

func TestTimerBadge(t *testing.T) {
	now := time.Now()

	assert.Equal(t, "🔄 计时中", TimerBadge(&model.SlaTimer{}))
	assert.Equal(t, "✅ 已停止", TimerBadge(&model.SlaTimer{StoppedAt: &now}))
	// 超期优先于停止
	assert.Equal(t, "⏰ 已超期", TimerBadge(&model.SlaTimer{Breached: true, StoppedAt: &now}))
}

func TestInstanceBadge(t *testing.T) {
	assert.Equal(t, "✅", InstanceBadge(&model.WorkflowInstance{StateValid: true}))
	assert.Equal(t, "⚠️ 悬空", InstanceBadge(&model.WorkflowInstance{}))
}

func TestDurationAndOrDash(t *testing.T) {
	assert.Equal(t, "1h0m0s", Duration(3600))
	assert.Equal(t, "-", OrDash(""))
	assert.Equal(t, "alice", OrDash("alice"))
}
