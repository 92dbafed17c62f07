/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/jabbar-dev/bnb-aimtech/cmd"

func main() {
	cmd.Execute()
}
