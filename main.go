// Command deepchat is the interactive multi-tab terminal chat client.
package main

import "github.com/deepchat/deepchat/cmd"

func main() {
	cmd.Execute()
}
