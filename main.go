package main

import "github.com/KaramelBytes/datatidy-cli/cmd"

func main() {
	cmd.Execute()
}
