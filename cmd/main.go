package main

import (
	"github.com/kerbaras/fanqie/cmd/fanqie"
)

func main() {
	cmd.Execute()
}
