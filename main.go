package main

import "github.com/foiafeed/foiafeed/cmd"

func main() {
	cmd.Execute()
}
