// Command bcachectl creates disk images and drives them through the buffer
// cache.
package main

import (
	"github.com/tebeka/atexit"

	"github.com/ParkGyuhwan/buffercache/bcachectl/cmd"
)

func main() {
	cmd.Execute()
	atexit.Exit(0)
}
