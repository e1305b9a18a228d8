/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/racetelemetry-analyzer/cmd"

func main() {
	cmd.Execute()
}
