package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

// PrintJSON 缩进JSON输出到标准输出
func PrintJSON(v any) error {
	return EncodeJSON(os.Stdout, v)
}

// EncodeJSON 缩进JSON输出到指定writer
func EncodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Success 成功消息
func Success(format string, args ...any) {
	successColor.Printf("✅ "+format+"\n", args...)
}

// Error 错误消息
func Error(format string, args ...any) {
	errorColor.Printf("❌ "+format+"\n", args...)
}

// Info 提示消息
func Info(format string, args ...any) {
	infoColor.Printf("ℹ️  "+format+"\n", args...)
}

// Warning 警告消息
func Warning(format string, args ...any) {
	warnColor.Printf("⚠️  "+format+"\n", args...)
}
