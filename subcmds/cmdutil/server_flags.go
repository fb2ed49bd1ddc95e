// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"flag"
)

type ServerFlags struct {
	// Listen overrides the listen address from the settings when non-empty.
	Listen string
}

func (sf *ServerFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&sf.Listen, "listen", "", "TCP host:port address for the api endpoint (default from the settings)")
}
