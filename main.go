package main

import "hex-tools/cmd"

func main() {
	cmd.Execute()
}
