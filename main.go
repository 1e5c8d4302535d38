package main

import "github.com/KaramelBytes/tierlens-cli/cmd"

func main() {
	cmd.Execute()
}
