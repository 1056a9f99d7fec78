package main

import "github.com/adithyabsk/portfoliohut/cmd/portfoliohut/cmd"

func main() {
	cmd.Execute()
}
