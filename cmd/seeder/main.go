package main

import "github.com/LumeraProtocol/testnet-seeder/cmd/seeder/cmd"

func main() {
	cmd.Execute()
}
