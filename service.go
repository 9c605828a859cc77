package main

import (
	"github.com/futurehomeno/edge-niu-adapter/cmd"
)

func main() {
	cmd.Execute()
}
