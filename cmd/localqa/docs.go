package main

// General API documentation for swaggo. Regenerate with `swag init -g cmd/localqa/docs.go`.
//
// @title           localqa API
// @version         1.0
// @description     HTTP API for asking questions of local GGUF models.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
