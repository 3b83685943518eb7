package main

import "snapshot-catalog/cmd"

func main() {
	cmd.Execute()
}
