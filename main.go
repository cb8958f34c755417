package main

import "github.com/mpapenbr/simresults-indexer/cmd"

func main() {
	cmd.Execute()
}
