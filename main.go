package main

import "github.com/timeline-badge/timeline/cmd"

func main() {
	cmd.Execute()
}
