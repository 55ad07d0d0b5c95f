// allcolour - Paint images that use every colour exactly once
//
// allcolour grows an image from one or more start points, placing each colour
// of an exhaustive RGB palette beside its closest-coloured neighbour.
//
// Copyright (c) 2025 John Mylchreest
// Licensed under the MIT License
package main

import "github.com/jmylchreest/allcolour/internal/cli"

func main() {
	cli.Execute()
}
