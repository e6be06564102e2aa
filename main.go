package main

import "github.com/nextlevelbuilder/agentbridge/cmd"

func main() {
	cmd.Execute()
}
