package main

import "github.com/inovacc/buildsweep/cmd"

func main() {
	cmd.Execute()
}
