package crypto

import (
	"runtime"
)

// ZeroBytes overwrites sensitive data with zeros
func ZeroBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
	// Keep the slice alive until the writes are done
	runtime.KeepAlive(data)
}
