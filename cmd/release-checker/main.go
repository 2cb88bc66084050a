package main

import "github.com/invoke-ai/release-packager/cmd/release-checker/cmd"

func main() {
	cmd.Execute()
}
