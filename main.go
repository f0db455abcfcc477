package main

import (
	"github.com/juliantom/gannot/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
