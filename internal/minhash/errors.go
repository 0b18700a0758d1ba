package minhash

import "errors"

var (
	errIncompatible = errors.New("minhash: signatures have different permutation counts")
	errBadLength    = errors.New("minhash: byte length is not a multiple of 4")
)
