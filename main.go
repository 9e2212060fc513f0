/*
	Copyright 2023 Markus Papenbrock
*/

package main

import "github.com/mpapenbr/swimprotocol/cmd"

func main() {
	cmd.Execute()
}
