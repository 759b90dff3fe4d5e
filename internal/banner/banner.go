package banner

import (
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// Version is the released version of the tool
const Version = "0.1.0"

func Print() {
	ptermLogo, _ := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithRGB("Log", pterm.NewRGB(0, 150, 57)),
		putils.LettersFromStringWithRGB("Sift", pterm.NewRGB(90, 90, 90))).
		Srender()

	pterm.DefaultCenter.Print(ptermLogo)

	pterm.DefaultCenter.Print(
		pterm.DefaultHeader.
			WithFullWidth().
			WithBackgroundStyle(pterm.NewStyle(pterm.BgGreen)).
			WithMargin(5).
			Sprint(pterm.White("LogSift - nginx logs into tables")),
	)

	pterm.Info.Println(
		"Collects nginx access and error logs over SFTP and turns them into combined tables." +
			"\nVersion " + Version + ".",
	)
}
