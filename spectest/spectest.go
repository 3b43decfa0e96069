// Package spectest carries a small set of service specifications laid out the
// way an SDK's data directory is: <service>/<api-version>/service-2.json.
// Tests across the module load them instead of depending on an installed SDK.
package spectest

import (
	"embed"
	"io/fs"
)

//go:embed data
var data embed.FS

// FS returns the specification tree rooted at the service directories.
func FS() fs.FS {
	sub, err := fs.Sub(data, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// Services lists the services available in FS.
func Services() []string {
	entries, err := fs.ReadDir(data, "data")
	if err != nil {
		panic(err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names
}
