package main

import (
	_ "time/tzdata"

	"github.com/Wisionflow/algora/cmd"
)

func main() {
	cmd.Execute()
}
