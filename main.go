package main

import "github.com/yshimizu/gh-commit-report/cmd"

func main() {
	cmd.Execute()
}
