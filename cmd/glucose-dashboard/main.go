package main

import "glucose-dashboard/internal/cli"

func main() {
	cli.Execute()
}
