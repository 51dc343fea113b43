package main

import "github.com/igraph100/DW-Spectrum/cmd"

func main() {
	cmd.Execute()
}
