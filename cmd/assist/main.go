package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "assist"}

	root.AddCommand(serveCMD(), migrateCMD(), kbCheckCMD())
	_ = root.Execute()
}
