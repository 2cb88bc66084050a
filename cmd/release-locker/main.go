package main

import "github.com/invoke-ai/release-packager/cmd/release-locker/cmd"

func main() {
	cmd.Execute()
}
