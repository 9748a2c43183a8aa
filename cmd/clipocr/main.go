package main

import "github.com/fieldlens/clipocr/cmd/clipocr/cmd"

func main() {
	cmd.Execute()
}
