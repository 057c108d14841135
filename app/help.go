package app

import (
	"fmt"

	"github.com/pterm/pterm"
)

func helpText() string {
	description := fmt.Sprintf(
		"%s\n\t\t{{.Usage}}\n\n",
		pterm.Yellow("DESCRIPTION"),
	)

	usage := fmt.Sprintf(
		"%s\n\t\t{{.HelpName}} {{if .UsageText}}{{ .UsageText }}{{end}}\n\n",
		pterm.Yellow("USAGE"),
	)

	version := fmt.Sprintf(
		"{{if .Version}}%s\n\t\t{{.Version}}{{end}}\n\n",
		pterm.Yellow("VERSION"),
	)

	commands := fmt.Sprintf(
		"%s\n{{range .Commands}}{{if not .HideHelp}}   %s{{ `\t`}}{{.Usage}}{{ `\n` }}{{end}}{{end}}\n\n",
		pterm.Yellow("COMMANDS"),
		pterm.Green("{{join .Names `, `}}"),
	)

	options := fmt.Sprintf(
		"%s\n{{range .VisibleFlags}}\t\t{{if .Aliases}}{{range $element := .Aliases}}%s,{{end}}{{end}} %s\n\t\t\t\t{{.Usage}}\n\n{{end}}",
		pterm.Yellow("OPTIONS"),
		pterm.Green("-{{$element}}"),
		pterm.Green("--{{.Name}} {{.DefaultText}}"),
	)

	env := fmt.Sprintf(
		"%s\n\t\t%s\n\n",
		pterm.Yellow("ENVIRONMENTAL VARIABLES"),
		envHelp(),
	)

	return description + usage + version + commands + options + env
}

func envHelp() string {
	return `
STUDYTIME_NO_COLOR, NO_COLOR: set to any value to avoid printing ANSI escape sequences for color output.

STUDYTIME_ENV: keeps the config, database and log files of a separate environment (e.g. 'dev') apart from the default ones.`
}
