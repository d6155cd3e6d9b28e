package vmthook

// a single rel32 jump cannot reach an arbitrary 64 bit destination
const nativeEncoding = EncodingAbs64
