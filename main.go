package main

import "github.com/xvierd/anchor-cli/cmd"

func main() {
	cmd.Execute()
}
