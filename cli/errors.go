package cli

import (
	"errors"

	"github.com/MakeNowJust/heredoc"
)

var (
	ErrConfigNotFound = errors.New(heredoc.Doc(`
	Config file not found. Loading from defaults...

	Run "vfsearch config init" to initialize a new configuration file
	Run "vfsearch help environment" for more information.

	Alternatively, make a "vfsearch.yaml" file in the current directory
`))
)
