package vmthook

const nativeEncoding = EncodingRel32
