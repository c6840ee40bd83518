package main

// Version is the relbump release. It is rewritten by relbump's own releases.
var Version = "0.1.0"
