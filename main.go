package main

import "github.com/opticore/gorcwa/cmd"

func main() {
	cmd.Execute()
}
