package main

import "github.com/zhake2025/streamchat/cmd"

func main() {
	cmd.Execute()
}
