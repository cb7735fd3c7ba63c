package main

import "github.com/BrunoRangell/app-muran-sub008/cmd"

func main() {
	cmd.Execute()
}
