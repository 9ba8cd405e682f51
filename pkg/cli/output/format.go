package output

import (
	"time"

	"github.com/LENAX/tms-engine/pkg/core/model"
)

// timeLayout 列表输出统一的时间格式
const timeLayout = "2006-01-02 15:04:05"

// FormatTime 列表时间格式化
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// TimerBadge 计时器状态徽标：超期优先于停止展示
func TimerBadge(t *model.SlaTimer) string {
	switch {
	case t.Breached:
		return "⏰ 已超期"
	case t.StoppedAt != nil:
		return "✅ 已停止"
	default:
		return "🔄 计时中"
	}
}

// InstanceBadge 实例有效性徽标；悬空实例（当前状态已被删除）需要显眼提示
func InstanceBadge(inst *model.WorkflowInstance) string {
	if inst.StateValid {
		return "✅"
	}
	return "⚠️ 悬空"
}

// Duration 秒数转时长展示（如 3600 → "1h0m0s"）
func Duration(seconds int64) string {
	return (time.Duration(seconds) * time.Second).String()
}

// OrDash 空字符串展示为占位短横
func OrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
