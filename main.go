package main

import "github.com/deploymenttheory/go-hammer2/cmd"

func main() {
	cmd.Execute()
}
