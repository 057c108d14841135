// Package pathutil manages application file paths and locations
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
)

const (
	appDir = "studytime"
	envVar = "STUDYTIME_ENV"
)

// Paths holds the absolute locations of the application files.
type Paths struct {
	ConfigFile string
	DBFile     string
	LogFile    string
	TokenFile  string
}

type fileNames struct {
	config string
	db     string
	log    string
	token  string
}

func names() fileNames {
	n := fileNames{
		config: "config.yml",
		db:     "studytime.db",
		log:    "studytime.log",
		token:  "token",
	}

	// STUDYTIME_ENV keeps development data apart from real data
	if env := strings.TrimSpace(os.Getenv(envVar)); env != "" {
		n.config = fmt.Sprintf("config_%s.yml", env)
		n.db = fmt.Sprintf("studytime_%s.db", env)
		n.log = fmt.Sprintf("studytime_%s.log", env)
		n.token = fmt.Sprintf("token_%s", env)
	}

	return n
}

// Resolve computes the application paths under the XDG base directories,
// creating the parent directories as needed.
func Resolve() (Paths, error) {
	var (
		p   Paths
		err error
	)

	n := names()

	p.ConfigFile, err = xdg.ConfigFile(filepath.Join(appDir, n.config))
	if err != nil {
		return p, err
	}

	p.TokenFile, err = xdg.ConfigFile(filepath.Join(appDir, n.token))
	if err != nil {
		return p, err
	}

	p.DBFile, err = xdg.DataFile(filepath.Join(appDir, n.db))
	if err != nil {
		return p, err
	}

	p.LogFile, err = xdg.DataFile(filepath.Join(appDir, "log", n.log))
	if err != nil {
		return p, err
	}

	return p, nil
}
