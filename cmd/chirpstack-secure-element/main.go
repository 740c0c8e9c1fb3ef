package main

import (
	"github.com/brocaar/chirpstack-secure-element/cmd/chirpstack-secure-element/cmd"
)

var version string // set by the compiler

func main() {
	cmd.Execute(version)
}
