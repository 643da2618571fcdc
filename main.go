package main

import "github.com/locvowork/dayplanner/cmd"

func main() {
	cmd.Execute()
}
