package main

import "github.com/ayusman/tracematch/cmd/tracematch/cmd"

func main() {
	cmd.Execute()
}
