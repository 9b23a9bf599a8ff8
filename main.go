package main

import "github.com/SimonVuong/saute/cmd"

func main() {
	cmd.Execute()
}
