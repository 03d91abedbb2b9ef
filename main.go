package main

import "github.com/ksfoundation/oneshot/cmd"

func main() {
	cmd.Execute()
}
