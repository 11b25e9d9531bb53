package main

import "github.com/kozaktomas/voice-attendance/cmd"

func main() {
	cmd.Execute()
}
