package main

import "friendspark/cmd/friendspark/command"

func main() {
	command.Execute()
}
