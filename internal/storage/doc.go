// Package storage provides the pluggable durable-backend layer. A
// Manager chains a primary and a fallback backend behind the uniform
// save/load contract; concrete backends live in the subpackages file,
// s3, redis and badger. Backend failures never propagate to callers:
// they surface as a false save or a nil load, logged once with the
// backend name and key.
package storage
