package main

import "github.com/KaramelBytes/supermart-cli/cmd"

func main() {
	cmd.Execute()
}
