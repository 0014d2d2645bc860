package main

import "github.com/vietddude/kafkaguard/internal/cli"

func main() {
	cli.Execute()
}
