package main

import "github.com/prerak-labs/saakshi/cmd"

func main() {
	cmd.Execute()
}
