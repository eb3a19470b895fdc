package main

import "nathanbeddoewebdev/vultrcli/cmd"

func main() {
	cmd.Execute()
}
