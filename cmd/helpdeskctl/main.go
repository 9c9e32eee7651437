package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/spec-kit/helpdesk-service/cmd/helpdeskctl/commands"
)

func main() {
	commands.Execute()
}
