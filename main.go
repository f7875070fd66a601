package main

import "snowsearch/cmd"

func main() {
	cmd.Execute()
}
