package main

// General API documentation for swaggo. Build with -tags=swagger to serve it.
//
// @title           livedash API
// @version         1.0
// @description     Control surface for a live dashboard session: models, panels and refreshes.
//
// @BasePath  /
//
// @schemes http
