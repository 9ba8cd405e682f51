package main

import (
	"github.com/LENAX/tms-engine/pkg/cli/cmd"
)

// CLI工具入口
func main() {
	cmd.Execute()
}
