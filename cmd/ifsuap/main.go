package main

import (
	_ "time/tzdata"

	"ifsuap/cmd/ifsuap/commands"
	"ifsuap/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
