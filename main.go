package main

import "storefront-api/cmd"

func main() {
	cmd.Execute()
}
