package main

import (
	"github.com/RianMcHale/Container-Security-Scanner/cmd"
)

func main() {
	cmd.Execute()
}
