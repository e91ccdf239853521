package main

import "github.com/KaramelBytes/datastory-cli/cmd"

func main() {
	cmd.Execute()
}
