package app

import "github.com/urfave/cli/v2"

var (
	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	modeFlag = &cli.StringFlag{
		Name:    "mode",
		Aliases: []string{"m"},
		Usage:   "Timer mode: free, countdown, work_break_cycle or exam",
	}

	countdownFlag = &cli.StringFlag{
		Name:    "countdown",
		Aliases: []string{"c"},
		Usage:   "Countdown length (e.g. 45m or 45)",
	}

	workFlag = &cli.StringFlag{
		Name:    "work",
		Aliases: []string{"w"},
		Usage:   "Work phase length of a work/break cycle (default: 25m)",
	}

	breakFlag = &cli.StringFlag{
		Name:    "break",
		Aliases: []string{"b"},
		Usage:   "Break phase length of a work/break cycle (default: 5m)",
	}

	sectionFlag = &cli.StringSliceFlag{
		Name:    "section",
		Aliases: []string{"s"},
		Usage:   "Exam section as name=duration. Repeat for each section, in order",
	}

	sessionCmdFlag = &cli.StringFlag{
		Name:    "session-cmd",
		Aliases: []string{"cmd"},
		Usage:   "Execute an arbitrary command after each saved session",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Only sessions completed after this time: a period (today, yesterday, 7days, 30days, 365days, all-time) or a date such as '3 days ago'",
	}

	untilFlag = &cli.StringFlag{
		Name:  "until",
		Usage: "Only sessions completed before this date",
	}

	filterModeFlag = &cli.StringFlag{
		Name:  "mode",
		Usage: "Only sessions of this mode",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the output as JSON",
	}

	yesFlag = &cli.BoolFlag{
		Name:    "yes",
		Aliases: []string{"y"},
		Usage:   "Skip the confirmation prompt",
	}

	tokenFlag = &cli.StringFlag{
		Name:    "token",
		Aliases: []string{"t"},
		Usage:   "Access token issued by the sync service. Prompted for when omitted",
	}
)

// timerFlags are accepted by the default action and the start command.
var timerFlags = []cli.Flag{
	modeFlag,
	countdownFlag,
	workFlag,
	breakFlag,
	sectionFlag,
	sessionCmdFlag,
}

// filterFlags narrow the sessions commands.
var filterFlags = []cli.Flag{
	sinceFlag,
	untilFlag,
	filterModeFlag,
	jsonFlag,
}
