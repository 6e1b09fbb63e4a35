package model

import "errors"

// ErrNotFound é o sentinela único de registro ausente. Os drivers e o
// pacote storage o reexportam para que errors.Is funcione entre camadas.
var ErrNotFound = errors.New("not found")
