//go:build !386 && !amd64

package vmthook

const nativeEncoding = EncodingNone
