package main

import "github.com/CosmoTheDev/reviewapp-agent/cmd"

func main() {
	cmd.Execute()
}
