package main

import (
	"github/safehost/go-provider/cmd"
)

func main() {
	cmd.Execute()
}
