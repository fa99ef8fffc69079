package main

import "github.com/oshokin/dfu-packager/cmd/dfu-packager/cmd"

func main() {
	cmd.Execute()
}
