package main

import "gsh/cmd"

func main() {
	cmd.Execute()
}
