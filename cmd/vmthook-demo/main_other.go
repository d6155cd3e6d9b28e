//go:build !amd64 || !(linux || windows || darwin || freebsd)

package main

import (
	"fmt"
	"runtime"
)

func main() {
	fmt.Printf("vmthook-demo needs amd64, running on %s/%s\n", runtime.GOOS, runtime.GOARCH)
}
