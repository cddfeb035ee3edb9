package main

import "github.com/semonara/semonara/cmd"

func main() {
	cmd.Execute()
}
