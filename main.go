package main

import "github.com/avik1986/hierarchy-role-based-maker-checker/cmd"

func main() {
	cmd.Execute()
}
