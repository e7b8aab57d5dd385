package main

import "github.com/talentdesk/backoffice/cmd"

func main() {
	cmd.Execute()
}
