package main

import "logsift/internal/cmd"

func main() {
	cmd.Execute()
}
