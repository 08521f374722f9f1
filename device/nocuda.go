//go:build !cuda

package device

func cudaDevices() int {
	return 0
}
