package cmd

import "github.com/tsl0922/mpv-menu-plugin/pkg"

var (
	ErrWriteConfig = pkg.NewError("write configuration file")
	ErrFileExists  = pkg.NewError("file exists (use --force to overwrite)")
	ErrNoMenu      = pkg.NewError("menu definition is empty")
)
