package templates

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

// Names of the embedded installer assets.
const (
	UnixScript    = "install.sh.tmpl"
	WindowsScript = "install.bat.tmpl"
	Readme        = "readme.txt.tmpl"
)

//go:embed install.sh.tmpl install.bat.tmpl readme.txt.tmpl
var files embed.FS

// Data supplies the values substituted into the installer scripts.
type Data struct {
	// ProductName is the application being installed.
	ProductName string
	// Version is the release version shown to the end user.
	Version string
	// PythonVersion is the interpreter series the manifests are pinned for.
	PythonVersion string
	// ReleaseURL becomes the RELEASE_URL variable in the script.
	ReleaseURL string
	// Sourceball becomes the RELEASE_SOURCEBALL variable in the script.
	Sourceball string
}

// Render executes the named embedded template with the provided data.
func Render(name string, data Data) ([]byte, error) {
	tmpl, err := template.ParseFS(files, name)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render template %s: %w", name, err)
	}

	return buf.Bytes(), nil
}
