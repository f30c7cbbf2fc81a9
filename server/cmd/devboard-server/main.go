package main

import (
	"github.com/devboard/devboard/server/cmd/devboard-server/commands"
	_ "github.com/devboard/devboard/server/cmd/devboard-server/commands/migrate"
)

func main() {
	commands.Execute()
}
