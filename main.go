// Package main is the relbump command line entry point.
package main

import "github.com/bcomnes/relbump/cmd"

func main() {
	cmd.Execute(Version)
}
