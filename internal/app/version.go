package app

// Version is the build version, set at link time with
// -ldflags "-X github.com/MrWong99/enunciate/internal/app.Version=v1.2.3".
var Version = "dev"
