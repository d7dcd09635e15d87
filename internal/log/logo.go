package log

import (
	"fmt"

	"github.com/mbndr/figlet4go"
)

// PrintLogo renders text as an ASCII banner, one hex colour per letter cycle.
func PrintLogo(text string, colors []string) {
	ascii := figlet4go.NewAsciiRender()

	options := figlet4go.NewRenderOptions()
	for _, hex := range colors {
		trueColor, err := figlet4go.NewTrueColorFromHexString(hex)
		if err != nil {
			continue
		}
		options.FontColor = append(options.FontColor, trueColor)
	}

	renderStr, err := ascii.RenderOpts(text, options)
	if err != nil {
		fmt.Println(text)
		return
	}

	fmt.Print(renderStr)
}
