package main

import "github.com/coolshop/kbbridge/apps/kbbridge/cmd"

func main() {
	cmd.Execute()
}
