package main

import "github.com/opsboard/backend/cmd"

func main() {
	cmd.Execute()
}
