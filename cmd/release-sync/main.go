package main

import "github.com/oshokin/release-sync/cmd/release-sync/cmd"

func main() {
	cmd.Execute()
}
