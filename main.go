package main

import "github.com/aibrahim185/Algeo02-23012/cmd"

func main() {
	cmd.Execute()
}
