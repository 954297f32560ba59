package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

// Row ids are 32 alphanumeric characters, safe in storage paths and URLs.
const (
	nanoidSize     = 32
	nanoidAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

func NanoID() string {
	return gonanoid.MustGenerate(nanoidAlphabet, nanoidSize)
}
