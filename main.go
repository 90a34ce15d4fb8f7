package main

import "github.com/frahmantamala/asset-management/cmd"

func main() {
	cmd.Execute()
}
