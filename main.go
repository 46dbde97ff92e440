package main

import "github.com/openfabric/tokenbridge/cmd"

func main() {
	cmd.Execute()
}
