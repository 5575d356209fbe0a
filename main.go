package main

import "github.com/twiced-technology-gmbh/swarmwatch/cmd"

func main() {
	cmd.Execute()
}
