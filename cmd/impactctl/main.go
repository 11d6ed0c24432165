package main

import "github.com/MrD-D-tech/impactusall-mvp-sub000/internal/cli/cmd"

func main() {
	cmd.Execute()
}
