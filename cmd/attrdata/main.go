package main

import "github.com/ssargent/attrdata/cmd/attrdata/cmd"

func main() {
	cmd.Execute()
}
