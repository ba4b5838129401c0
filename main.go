package main

import "stash-ingest/cmd"

func main() {
	cmd.Execute()
}
