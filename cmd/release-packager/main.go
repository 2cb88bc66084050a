package main

import "github.com/invoke-ai/release-packager/cmd/release-packager/cmd"

func main() {
	cmd.Execute()
}
