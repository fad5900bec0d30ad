package main

import "mu-bmd-retarget/cmd/bmd-retarget/cmd"

func main() {
	cmd.Execute()
}
