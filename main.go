package main

import "github.com/qobs-build/automod/cmd"

func main() {
	cmd.Execute()
}
